package config

import (
	"slices"
	"strings"
)

// CurrentConfigVersion is written by `gitcred install` and assumed when no
// config file is present.
const CurrentConfigVersion = "1"

var SupportedConfigVersions = []string{CurrentConfigVersion}

func IsSupportedConfigVersion(v string) bool {
	return slices.Contains(SupportedConfigVersions, v)
}

func SupportedConfigVersionsCSV() string {
	return strings.Join(SupportedConfigVersions, ", ")
}
