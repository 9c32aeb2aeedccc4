package ini_adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/a3dk/internal/config"
	"gopkg.in/ini.v1"
)

// reader reads typed optional values from one section and remembers every
// conversion failure.
type reader struct {
	sec  *ini.Section
	errs []error
}

// newReader rejects keys not listed in allowed up front.
func newReader(sec *ini.Section, allowed []string) *reader {
	r := &reader{sec: sec}
	known := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		known[strings.ToLower(k)] = true
	}
	for _, k := range sec.Keys() {
		if !known[strings.ToLower(k.Name())] {
			r.fail(k.Name(), fmt.Errorf("unknown key"))
		}
	}
	return r
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("section [%s], key %s: %w", r.sec.Name(), key, err))
}

func (r *reader) err() error {
	return errors.Join(r.errs...)
}

func (r *reader) str(key string) *string {
	if !r.sec.HasKey(key) {
		return nil
	}
	return config.Ptr(r.sec.Key(key).String())
}

func (r *reader) list(key string) []string {
	if !r.sec.HasKey(key) {
		return nil
	}
	return config.SplitList(r.sec.Key(key).String())
}

func (r *reader) num(key string) *int {
	if !r.sec.HasKey(key) {
		return nil
	}
	v, err := r.sec.Key(key).Int()
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &v
}

func (r *reader) flag(key string) *bool {
	if !r.sec.HasKey(key) {
		return nil
	}
	v, err := r.sec.Key(key).Bool()
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &v
}
