package cli

import "github.com/fatih/color"

func successText(s string) string { return color.New(color.FgGreen).Sprint(s) }
func warnText(s string) string    { return color.New(color.FgYellow).Sprint(s) }
func errorText(s string) string   { return color.New(color.FgRed).Sprint(s) }
