package alerter

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

func genTimeStampString(t time.Time) string {
	return t.Format("Mon Jan  2 15:04:05 2006 MST")
}

func composeSubject(a *Alert) string {
	if a.Class == ClassTest {
		return fmt.Sprintf("SMART alert test on host: %s", a.Hostname)
	}
	return fmt.Sprintf("SMART error (%s) detected on host: %s", a.Class, a.Hostname)
}

func composeFull(a *Alert) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "This message was generated by the diskhealth daemon running on:\n\n")
	fmt.Fprintf(&sb, "   host name:  %s\n\n", a.Hostname)
	fmt.Fprintf(&sb, "The following warning/error was logged by the diskhealth daemon:\n\n")
	fmt.Fprintf(&sb, "%s\n\n", a.Message)
	fmt.Fprintf(&sb, "Device info:\n%s\n\n", a.Device.Info)
	fmt.Fprintf(&sb, "For details see host's SYSLOG.\n\n")
	if a.Class == ClassTest {
		return sb.String()
	}
	if a.NextDays < 0 {
		fmt.Fprintf(&sb, "You can also use the diskhealth command to view this device.\n")
		fmt.Fprintf(&sb, "No additional messages about this problem will be sent.\n")
	} else {
		fmt.Fprintf(&sb, "Another message will be sent in %d days if the problem persists.\n", a.NextDays)
	}
	if a.PrevCount > 0 {
		fmt.Fprintf(&sb, "The original message about this issue was sent at %s\n", genTimeStampString(a.FirstSent))
	}
	return sb.String()
}

// environment returns the variables handed to an exec notifier
func environment(a *Alert) []string {
	nextDays := ""
	if a.NextDays >= 0 {
		nextDays = fmt.Sprintf("%d", a.NextDays)
	}
	return []string{
		"DISKHEALTH_MAILER=" + a.Mailer,
		"DISKHEALTH_DEVICE=" + a.Device.Name,
		"DISKHEALTH_DEVICETYPE=" + a.Device.Type,
		"DISKHEALTH_DEVICESTRING=" + a.Device.Name,
		"DISKHEALTH_DEVICEINFO=" + a.Device.Info,
		"DISKHEALTH_FAILTYPE=" + a.Class.String(),
		"DISKHEALTH_ADDRESS=" + strings.Join(a.Addresses, " "),
		"DISKHEALTH_SUBJECT=" + a.Subject,
		"DISKHEALTH_TFIRST=" + genTimeStampString(a.FirstSent),
		fmt.Sprintf("DISKHEALTH_TFIRSTEPOCH=%d", a.FirstSent.Unix()),
		"DISKHEALTH_MESSAGE=" + a.Message,
		"DISKHEALTH_FULLMESSAGE=" + a.Full,
		"DISKHEALTH_NEXTDAYS=" + nextDays,
		fmt.Sprintf("DISKHEALTH_PREVCNT=%d", a.PrevCount),
		"DISKHEALTH_ALERTID=" + a.ID,
	}
}
