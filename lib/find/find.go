// Package find locates USB serial devices for the lab's instruments by
// walking /sys/class/tty.
package find

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type FilterFn func(*Usbtty) bool

// ThorlabsFilter matches Thorlabs console power meters (PM100 family).
func ThorlabsFilter(ut *Usbtty) bool {
	return ut.IDv == "1313" || strings.Contains(ut.Mfg, "Thorlabs")
}

// FTDIFilter matches FTDI-based USB-serial adapters, the bridge chip
// on most of the bench instruments' USB ports.
func FTDIFilter(ut *Usbtty) bool {
	return ut.IDv == "0403" || strings.Contains(ut.Mfg, "FTDI")
}

// SerialFilter matches a device by its USB serial number string.
func SerialFilter(s string) FilterFn {
	return func(ut *Usbtty) bool { return ut.Serial == s }
}

// ProductFilter matches a device by substring of its product string.
func ProductFilter(s string) FilterFn {
	return func(ut *Usbtty) bool { return strings.Contains(ut.Prod, s) }
}

// Find searches for a usb serial device. If filter is not nil,
// it is used to narrow choices down. The first device for which
// it returns true (if any) is chosen.
func Find(filter FilterFn) (string, error) {
	ttys, err := AllUsbTtys()
	if err != nil {
		return "", err
	}
	if filter != nil {
		for i := range ttys {
			if filter(&ttys[i]) {
				ttys = []Usbtty{ttys[i]}
				break
			}
		}
	}

	if len(ttys) == 0 {
		return "", fmt.Errorf("no matching ttys found")
	}
	if len(ttys) == 1 {
		return ttys[0].Dev, nil
	}
	return "", fmt.Errorf("multiple ttys: %#v", ttys)
}

type Usbtty struct {
	Dev, Path string
	IDp, IDv  string
	Mfg, Prod string
	Serial    string
}

func (u Usbtty) String() string {
	return fmt.Sprintf("dev %s path %s pid/vid %s/%s mfg/prod %s/%s serial %s",
		u.Dev, u.Path, u.IDp, u.IDv, u.Mfg, u.Prod, u.Serial)
}

type Usbttys []Usbtty

func (uts Usbttys) String() string {
	s := make([]string, 0, len(uts))
	for _, ut := range uts {
		s = append(s, ut.String())
	}
	return strings.Join(s, "\n")
}

// AllUsbTtys finds ttys on usb devices by looking at /sys/class/tty
// and the /sys paths its symlinks resolve to.
func AllUsbTtys() (Usbttys, error) {
	var devs []Usbtty
	sct := "/sys/class/tty/"
	entries, err := os.ReadDir(sct)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink == 0 {
			continue
		}
		// a symlink like /sys/class/tty/ttyUSB0 ->
		// /sys/devices/.../usb1/1-10/1-10:1.0/tty/ttyUSB0
		path := filepath.Join(sct, e.Name())
		abs, err := filepath.EvalSymlinks(path)
		if err != nil {
			log.Printf("error evaluating symlink %s; skipping: %s", path, err)
			continue
		}
		if !strings.Contains(abs, "usb") {
			continue
		}
		dev, err := filepath.EvalSymlinks(filepath.Join(abs, "device"))
		if err != nil {
			log.Printf("usb but lacking device subdir?! %s %s", abs, err)
		}
		// the id and descriptor files live one directory above the
		// interface directory
		info, err := readUsbInfo(filepath.Dir(dev))
		if err != nil {
			log.Printf("%s: %s", abs, err)
		}
		info.Dev = e.Name()
		info.Path = abs
		devs = append(devs, info)
	}
	return devs, nil
}

// readUsbInfo reads product and vendor ids, and the mfg/product/serial
// descriptor strings.
//
// The returned error is the last one encountered, ignoring
// os.ErrNotExist. Errors do not prevent reading additional files or
// returning the data collected.
func readUsbInfo(dev string) (Usbtty, error) {
	var (
		ut  Usbtty
		err error
	)
	fields := []struct {
		name string
		dst  *string
	}{
		{"idProduct", &ut.IDp},
		{"idVendor", &ut.IDv},
		{"manufacturer", &ut.Mfg},
		{"product", &ut.Prod},
		{"serial", &ut.Serial},
	}
	for _, f := range fields {
		b, rerr := os.ReadFile(filepath.Join(dev, f.name))
		if rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = rerr
		}
		*f.dst = strings.TrimSpace(string(b))
	}
	return ut, err
}
