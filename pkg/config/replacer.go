// pkg/config/replacer.go

package config

import "strings"

var envKeyReplacer = strings.NewReplacer("-", "_")
