package find

import "testing"

func TestThorlabsFilter(t *testing.T) {
	pm := Usbtty{Dev: "ttyUSB0", IDv: "1313", IDp: "8079", Prod: "PM100A"}
	if !ThorlabsFilter(&pm) {
		t.Error("vid 1313 should match")
	}
	byName := Usbtty{Dev: "ttyUSB1", Mfg: "Thorlabs GmbH"}
	if !ThorlabsFilter(&byName) {
		t.Error("Thorlabs manufacturer string should match")
	}
	other := Usbtty{Dev: "ttyACM0", IDv: "2341", Mfg: "Arduino"}
	if ThorlabsFilter(&other) {
		t.Error("Arduino should not match")
	}
}

func TestFTDIFilter(t *testing.T) {
	ftdi := Usbtty{Dev: "ttyUSB0", IDv: "0403", Mfg: "FTDI"}
	if !FTDIFilter(&ftdi) {
		t.Error("vid 0403 should match")
	}
}

func TestSerialFilter(t *testing.T) {
	ut := Usbtty{Dev: "ttyUSB0", Serial: "P1002347"}
	if !SerialFilter("P1002347")(&ut) {
		t.Error("serial should match")
	}
	if SerialFilter("P1002563")(&ut) {
		t.Error("wrong serial should not match")
	}
}

func TestProductFilter(t *testing.T) {
	ut := Usbtty{Dev: "ttyUSB0", Prod: "PM100A Optical Power Meter"}
	if !ProductFilter("PM100")(&ut) {
		t.Error("product substring should match")
	}
}
