// Package directives separates per-file @directive configuration from the
// program body. A line is a directive when its first non-whitespace character
// is '@'; everything else is body, preserved in original order.
package directives

import (
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
)

// Scan splits raw source text into configuration and residual body. Directive
// lines populate cfg and are consumed; all other lines are returned
// newline-terminated in original order. Unknown directives warn and are
// otherwise ignored. Scan performs no I/O.
func Scan(src string, cfg *common.Config, logger arbor.ILogger) string {
	var body strings.Builder
	body.Grow(len(src))

	for _, line := range splitLines(src) {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "@") {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}
		applyDirective(trimmed[1:], cfg, logger)
	}

	return body.String()
}

// applyDirective parses "name arg..." and updates cfg. Boolean directives
// treat exactly the literal "off" as false; any other value, including an
// absent one, means on.
func applyDirective(text string, cfg *common.Config, logger arbor.ILogger) {
	name, rest := readBare(text)
	switch name {
	case "hardline":
		v, _ := readBare(rest)
		cfg.Build.Hardline = v != "off"
	case "softline":
		v, _ := readBare(rest)
		cfg.Build.Softline = v != "off"
	case "opt":
		v, _ := readBare(rest)
		cfg.Build.Opt = v
	case "lto":
		v, _ := readBare(rest)
		cfg.Build.LTO = v != "off"
	case "profile":
		v, _ := readBare(rest)
		cfg.Build.Profile = v != "off"
	case "debug":
		v, _ := readBare(rest)
		cfg.Build.Debug = v != "off"
	case "out":
		v, _ := readQuotedOrBare(rest)
		cfg.Build.Out = v
	case "abi":
		v, _ := readQuotedOrBare(rest)
		cfg.Build.ABI = v
	case "target":
		v, _ := readQuotedOrBare(rest)
		cfg.Build.Target = v
	case "define":
		if v, _ := readBare(rest); v != "" {
			cfg.Toolchain.Defines = append(cfg.Toolchain.Defines, v)
		}
	case "inc":
		if v, _ := readQuotedOrBare(rest); v != "" {
			cfg.Toolchain.Includes = append(cfg.Toolchain.Includes, v)
		}
	case "libpath":
		if v, _ := readQuotedOrBare(rest); v != "" {
			cfg.Toolchain.LibPaths = append(cfg.Toolchain.LibPaths, v)
		}
	case "link":
		if v, _ := readQuotedOrBare(rest); v != "" {
			cfg.Toolchain.Links = append(cfg.Toolchain.Links, v)
		}
	default:
		logger.Warn().Str("directive", "@"+name).Msg("Unknown directive ignored")
	}
}

// readBare reads one whitespace-delimited token and returns it with the
// unconsumed remainder.
func readBare(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// readQuotedOrBare reads either a double-quoted string with backslash escapes
// or a bare whitespace-delimited token, whichever the next character selects.
func readQuotedOrBare(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(s, `"`) {
		return readBare(s)
	}

	var out strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			out.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '"' {
			return out.String(), s[i+1:]
		}
		out.WriteByte(c)
		i++
	}
	// Unterminated quote: take what was accumulated.
	return out.String(), ""
}

// splitLines splits on '\n', tolerating a missing trailing newline and
// stripping '\r' so Windows sources scan identically.
func splitLines(src string) []string {
	lines := strings.Split(src, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
