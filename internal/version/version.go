/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is the current version of icaltoday.
// This is set at build time via ldflags:
//
//	-X github.com/kljensen/icaltoday/internal/version.Version=X.Y.Z
var Version = "0.3.0"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get collects version information, including the VCS revision when the
// binary was built from a checkout.
func Get() Info {
	info := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		}
	}
	return info
}

// String formats the info as a single line.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "icaltoday %s", i.Version)
	if i.Commit != "" {
		fmt.Fprintf(&b, " (%s)", i.Commit)
	}
	fmt.Fprintf(&b, " %s %s", i.GoVersion, i.Platform)
	return b.String()
}
