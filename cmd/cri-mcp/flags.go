package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

// bind maps a flag onto a configuration key. A flag set on the command
// line wins over every other source.
func bind(flag *pflag.Flag, key string) {
	if flag == nil {
		panic(fmt.Sprintf("flag for %s is not defined", key))
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", flag.Name, err))
	}
}
