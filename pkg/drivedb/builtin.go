package drivedb

// builtinRecords is scanned top to bottom and the first match wins, so more
// specific entries of a family must precede the generic ones.
var builtinRecords = []Record{
	{
		Family: "VERSION: 7.3/5319 2022-02-24 diskhealth builtin",
	},
	{
		Family:       "DEFAULT",
		ModelPattern: "-",
		Warning:      "Default settings",
		Presets: "-v 1,raw48,Raw_Read_Error_Rate " +
			"-v 3,raw16(avg16),Spin_Up_Time " +
			"-v 5,raw16(raw16),Reallocated_Sector_Ct " +
			"-v 9,raw24(raw8),Power_On_Hours " +
			"-v 190,tempminmax,Airflow_Temperature_Cel " +
			"-v 194,tempminmax,Temperature_Celsius " +
			"-v 196,raw16(raw16),Reallocated_Event_Count " +
			"-v 241,raw48,Total_LBAs_Written " +
			"-v 242,raw48,Total_LBAs_Read",
	},
	{
		Family:       "Apple SD/SM/TS...E/F/G SSDs",
		ModelPattern: "APPLE SSD (S[DM]|TS)0[0-9]{3}[EFG]",
		Presets: "-v 173,raw48,Wear_Leveling_Count " +
			"-v 174,raw48,Host_Reads_MiB " +
			"-v 175,raw48,Host_Writes_MiB",
	},
	{
		Family:          "Crucial/Micron RealSSD m4/C400/P400",
		ModelPattern:    "M4-CT(064|128|256|512)M4SSD[123]",
		FirmwarePattern: "000[1-9]|0010",
		Warning: "This drive may hang after 5184 hours of power-on time:\n" +
			"https://www.tomshardware.com/news/Crucial-m4-Firmware-BSOD,14544.html\n" +
			"See the following web pages for firmware updates:\n" +
			"http://www.crucial.com/support/firmware.aspx",
		Presets: "-v 170,raw48,Grown_Failing_Block_Ct " +
			"-v 173,raw48,Wear_Leveling_Count",
	},
	{
		Family:       "Crucial/Micron RealSSD m4/C400/P400",
		ModelPattern: "(C400-MTFDDA[ACK]|M4-CT)(064|128|256|512)M4SSD[123]",
		Presets: "-v 170,raw48,Grown_Failing_Block_Ct " +
			"-v 173,raw48,Wear_Leveling_Count " +
			"-v 174,raw48,Unexpect_Power_Loss_Ct " +
			"-v 181,raw16,Non4k_Aligned_Access " +
			"-v 183,raw48,SATA_Iface_Downshift " +
			"-v 189,raw48,Factory_Bad_Block_Ct " +
			"-v 202,raw48,Perc_Rated_Life_Used " +
			"-v 206,raw48,Write_Error_Rate",
	},
	{
		Family:       "Intel 320 Series SSDs",
		ModelPattern: "INTEL SSDSA[12]CW(040|080|120|160|300|600)G3",
		Presets: "-F nologdir " +
			"-v 3,raw16(avg16),Spin_Up_Time " +
			"-v 170,raw48,Reserve_Block_Count " +
			"-v 171,raw48,Program_Fail_Count " +
			"-v 172,raw48,Erase_Fail_Count " +
			"-v 183,raw48,SATA_Downshift_Count " +
			"-v 192,raw48,Unsafe_Shutdown_Count " +
			"-v 225,raw48,Host_Writes_32MiB " +
			"-v 226,raw48,Workld_Media_Wear_Indic " +
			"-v 227,raw48,Workld_Host_Reads_Perc " +
			"-v 228,raw48,Workload_Minutes",
	},
	{
		Family:       "Samsung based SSDs",
		ModelPattern: "SAMSUNG SSD 8[3-7]0 (EVO|PRO).*|Samsung SSD 8[3-7]0 (EVO|PRO).*",
		Presets: "-v 5,raw16(raw16),Reallocated_Sector_Ct " +
			"-v 9,raw24(raw8),Power_On_Hours " +
			"-v 177,raw48,Wear_Leveling_Count " +
			"-v 179,raw48,Used_Rsvd_Blk_Cnt_Tot " +
			"-v 181,raw48,Program_Fail_Cnt_Total " +
			"-v 182,raw48,Erase_Fail_Count_Total " +
			"-v 183,raw48,Runtime_Bad_Block " +
			"-v 187,raw48,Uncorrectable_Error_Cnt " +
			"-v 190,tempminmax,Airflow_Temperature_Cel " +
			"-v 195,raw48,ECC_Error_Rate " +
			"-v 199,raw48,CRC_Error_Count " +
			"-v 235,raw48,POR_Recovery_Count " +
			"-v 241,raw48,Total_LBAs_Written",
	},
	{
		Family:       "SandForce Driven SSDs",
		ModelPattern: "SandForce 1st Ed\\.|KINGSTON SV100S2.*|OCZ-VERTEX2.*",
		Presets: "-v 1,raw24/raw32,Raw_Read_Error_Rate " +
			"-v 5,raw48,Retired_Block_Count " +
			"-v 9,msec24hour32,Power_On_Hours_and_Msec " +
			"-v 13,raw24/raw32,Soft_Read_Error_Rate " +
			"-v 100,raw48,Gigabytes_Erased " +
			"-v 170,raw48,Reserve_Block_Count " +
			"-v 171,raw48,Program_Fail_Count " +
			"-v 172,raw48,Erase_Fail_Count " +
			"-v 174,raw48,Unexpect_Power_Loss_Ct " +
			"-v 177,raw48,Wear_Range_Delta " +
			"-v 181,raw48,Program_Fail_Count " +
			"-v 182,raw48,Erase_Fail_Count " +
			"-v 187,raw48,Reported_Uncorrect " +
			"-v 194,tempminmax,Temperature_Celsius " +
			"-v 195,raw24/raw32,ECC_Uncorr_Error_Count " +
			"-v 196,raw16(raw16),Reallocated_Event_Count " +
			"-v 198,hex48,Uncorrectable_Sector_Ct " +
			"-v 199,raw48,SATA_CRC_Error_Count " +
			"-v 201,raw24/raw32,Unc_Soft_Read_Err_Rate " +
			"-v 204,raw24/raw32,Soft_ECC_Correct_Rate " +
			"-v 230,raw48,Life_Curve_Status " +
			"-v 231,raw48,SSD_Life_Left " +
			"-v 233,raw48,SandForce_Internal " +
			"-v 234,raw48,SandForce_Internal " +
			"-v 235,raw48,SuperCap_Health " +
			"-v 241,raw48,Lifetime_Writes_GiB " +
			"-v 242,raw48,Lifetime_Reads_GiB",
	},
	{
		Family:       "Fujitsu MHS AT",
		ModelPattern: "FUJITSU MHS20[6432]0AT(  .)?",
		Presets: "-v 9,seconds " +
			"-v 192,emergencyretractcyclect " +
			"-v 198,offlinescanuncsectorct " +
			"-v 200,writeerrorcount",
	},
	{
		Family:       "Fujitsu MPG3xxxAH",
		ModelPattern: "FUJITSU MPG3(102|153|204|307|409)AH.*",
		Presets:      "-v 9,seconds",
	},
	{
		Family:          "Samsung SpinPoint P80",
		ModelPattern:    "SAMSUNG SP(0451|08[0124]2|12[0145]3|16[0145]4)[CN]",
		FirmwarePattern: "TK100-23|TK110-23|TK110-24|TK110-25|TK11A-21",
		Warning:         "A firmware update is available for this drive",
		Presets:         "-v 9,halfminutes -F samsung2",
	},
	{
		Family:       "Samsung SpinPoint P80",
		ModelPattern: "SAMSUNG SP(0451|08[0124]2|12[0145]3|16[0145]4)[CN]",
		Presets:      "-v 9,halfminutes -F samsung2",
	},
	{
		Family:          "Samsung SpinPoint V80",
		ModelPattern:    "SAMSUNG SV(0221|0432|0651|0652|1041|1061|1063|1361|1363|1602|1603|1604)[HJN]",
		FirmwarePattern: "-",
		Presets:         "-v 9,halfminutes -F samsung",
	},
	{
		Family:       "Samsung SpinPoint F1 DT",
		ModelPattern: "SAMSUNG HD(083G|16[12]G|25[12]H|32[12]H|50[12]I|642J|75[23]L|10[23]U)J",
		Presets:      "-F samsung3",
	},
	{
		Family:          "Seagate Barracuda 7200.11",
		ModelPattern:    "ST3(500[368]2|750[36]3|1000[34]4)0AS",
		FirmwarePattern: "(AD14|SD1[5-9]|SD81)",
		Warning: "There are known problems with these drives,\n" +
			"see the following Seagate web pages:\n" +
			"https://seagate.force.com/kb/articles/en_US/FAQ/207931en\n" +
			"https://seagate.force.com/kb/articles/en_US/FAQ/207951en\n" +
			"https://seagate.force.com/kb/articles/en_US/FAQ/207957en",
		Presets: "-v 9,min2hour",
	},
	{
		Family:       "Seagate Barracuda 7200.11",
		ModelPattern: "ST3(160813|320[68]13|500[368]20|640[36]23|640[35]30|750[36]30|1000(333|[36]40)|1500341)AS?",
		Presets:      "-v 188,raw16",
	},
	{
		Family:       "Seagate Barracuda 7200.14 (AF)",
		ModelPattern: "ST(1000|1500|2000|2500|3000)DM00[1-3]-.*",
		Presets: "-v 188,raw16 " +
			"-v 240,msec24hour32",
	},
	{
		Family:       "Seagate IronWolf",
		ModelPattern: "ST(1|2|3|4|6|8|10|12)000VN00(0?[1-9]|2[0-2])-.*",
		Presets: "-v 18,raw48,Head_Health " +
			"-v 188,raw16 " +
			"-v 240,msec24hour32",
	},
	{
		Family:       "Seagate Enterprise Capacity 3.5 HDD",
		ModelPattern: "ST(5|6|8)000NM0[01][0-9][0-9]-.*",
		Presets: "-v 188,raw16 " +
			"-v 240,msec24hour32",
	},
	{
		Family:       "Western Digital Caviar Green (AF, SATA 6Gb/s)",
		ModelPattern: "WDC WD(8|10|15|20|25|30)00EZRX-.*",
		Presets:      "",
	},
	{
		Family:       "Western Digital Red",
		ModelPattern: "WDC WD(7500BFCX|10JFCX|[1-6]0EFRX|[1-6]0EFZX)-.*",
		Presets:      "",
	},
	{
		Family:       "Western Digital Raptor",
		ModelPattern: "WDC WD((360|740|800)GD|(360|400|740|800|1500)ADF[DS])-.*",
		Presets:      "",
	},
	{
		Family:       "Hitachi Deskstar 7K1000",
		ModelPattern: "(Hitachi )?HDS7210(75|10)KLA330",
		Presets:      "",
	},
	{
		Family:       "HGST Ultrastar He8",
		ModelPattern: "HGST HUH7280(60|80)AL[EN]6[0-9][0-4]",
		Presets:      "-v 22,raw48,Helium_Level",
	},
	{
		Family:       "Toshiba 2.5\" HDD MK..65GSX",
		ModelPattern: "TOSHIBA MK(16|25|32|50)65GSXF?",
		Presets:      "-v 9,minutes",
	},
	{
		Family:       "Toshiba X300",
		ModelPattern: "TOSHIBA HDWE1[456]0",
		Presets:      "",
	},
	{
		Family:       "Maxtor DiamondMax 40 ATA/66",
		ModelPattern: "Maxtor 9(0[246]|1[0357]|2[0246]|3[0246]|40)2U[0-9]",
		Presets:      "-v 9,minutes",
	},
	{
		Family:       "Quantum Fireball lct20",
		ModelPattern: "QUANTUM FIREBALLlct20 [1234]0",
		Presets:      "",
	},
	{
		Family:       "IBM Deskstar 60GXP",
		ModelPattern: "IC35L0[12346]0AVER07.*",
		Warning:      "IBM Deskstar 60GXP drives may need upgraded SMART firmware.\nPlease see http://haque.net/dtla_update/",
		Presets:      "",
	},
	{
		Family:       "USB: Buffalo JustStore Portable HD-PVU2; ",
		ModelPattern: "0x0411:0x0181",
		Presets:      "-d sat",
	},
	{
		Family:       "USB: Seagate FreeAgent Go; ",
		ModelPattern: "0x0bc2:0x2(000|100|101)",
		Presets:      "-d sat",
	},
	{
		Family:       "USB: ; JMicron JMS567",
		ModelPattern: "0x152d:0x0567",
		Presets:      "-d sat",
	},
}
