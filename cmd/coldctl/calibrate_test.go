package main

import (
	"strings"
	"testing"

	"github.com/coldlab/coldctl/lib/daq"
)

func testTable(t *testing.T) *daq.Table {
	t.Helper()
	table, err := daq.ReadTable(strings.NewReader("0,0\n5,10\n"))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestConvertLoopQuits(t *testing.T) {
	tables := map[int]*daq.Table{7: testTable(t)}
	names := map[int]string{7: "aom"}

	for _, input := range []string{"q\n", "quit\n", ""} {
		if err := convertLoop(strings.NewReader(input), tables, names); err != nil {
			t.Errorf("input %q: %v", input, err)
		}
	}
}

func TestConvertLoopBadInputKeepsPrompting(t *testing.T) {
	tables := map[int]*daq.Table{7: testTable(t)}
	names := map[int]string{7: "aom", 3: "flip"}

	// Channel typo, unknown channel, channel without a table, bad
	// direction, bad value, then one good conversion and quit. The
	// loop must survive all of it.
	input := strings.Join([]string{
		"seven",
		"99",
		"3",
		"7", "x",
		"7", "v", "two",
		"7", "v", "2.5",
		"q",
	}, "\n") + "\n"
	if err := convertLoop(strings.NewReader(input), tables, names); err != nil {
		t.Fatalf("convertLoop: %v", err)
	}
}

func TestConvertLoopBothDirections(t *testing.T) {
	tables := map[int]*daq.Table{7: testTable(t)}
	names := map[int]string{7: "aom"}

	input := "7\nv\n2.5\n7\nc\n5\nq\n"
	if err := convertLoop(strings.NewReader(input), tables, names); err != nil {
		t.Fatalf("convertLoop: %v", err)
	}
}
