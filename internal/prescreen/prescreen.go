// Package prescreen flags tool calls that are risky on their face, before
// the judge is consulted. It can only force a fallback to manual approval;
// nothing it returns ever approves a call.
package prescreen

import (
	"path"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Result is a pre-screen finding.
type Result struct {
	Risky  bool
	Reason string
}

var clean = Result{}

func risky(reason string) Result { return Result{Risky: true, Reason: reason} }

// alwaysRisky commands need a human no matter their arguments.
var alwaysRisky = map[string]bool{
	"sudo": true, "doas": true, "su": true,
	"dd": true, "shred": true, "eval": true,
	"mkfs": true, "fdisk": true, "parted": true,
}

var shells = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "fish": true, "dash": true, "ksh": true,
	"python": true, "python3": true, "perl": true, "ruby": true, "node": true,
}

// wrappers run their arguments as a command.
var wrappers = map[string]bool{
	"env": true, "nohup": true, "time": true, "command": true, "exec": true, "nice": true, "xargs": true,
}

var systemPrefixes = []string{"/etc/", "/usr/", "/var/", "/bin/", "/sbin/", "/boot/", "/System/", "/Library/"}

var sensitiveHomeFiles = []string{"~/.ssh/", "~/.aws/", "~/.gnupg/", "~/.bashrc", "~/.zshrc", "~/.profile", "~/.bash_profile"}

// Screen inspects a tool call. Inputs it cannot understand are not flagged.
func Screen(toolName string, toolInput map[string]any) Result {
	switch toolName {
	case "Bash":
		cmd, _ := toolInput["command"].(string)
		return ScreenCommand(cmd)
	case "Write", "Edit", "NotebookEdit":
		p, _ := toolInput["file_path"].(string)
		if p == "" {
			p, _ = toolInput["notebook_path"].(string)
		}
		if isSystemPath(p) {
			return risky(toolName + " to system path: " + p)
		}
	}
	return clean
}

// ScreenCommand parses a shell command line and checks every simple
// command in it, including both sides of pipelines and && / || chains.
func ScreenCommand(command string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return clean
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return clean
	}

	result := clean
	syntax.Walk(file, func(node syntax.Node) bool {
		if result.Risky {
			return false
		}
		switch n := node.(type) {
		case *syntax.BinaryCmd:
			if (n.Op == syntax.Pipe || n.Op == syntax.PipeAll) && n.Y != nil {
				if call, ok := n.Y.Cmd.(*syntax.CallExpr); ok {
					if args := words(call.Args); len(args) > 0 && shells[base(args[0])] {
						result = risky("pipe to shell interpreter: " + args[0])
						return false
					}
				}
			}
		case *syntax.CallExpr:
			result = screenArgs(words(n.Args))
		}
		return true
	})
	return result
}

func screenArgs(args []string) Result {
	for len(args) > 0 && wrappers[base(args[0])] {
		args = stripWrapper(args[1:])
	}
	if len(args) == 0 {
		return clean
	}

	name := base(args[0])
	rest := args[1:]

	if alwaysRisky[name] || strings.HasPrefix(name, "mkfs.") {
		return risky(name + " requires approval")
	}

	switch name {
	case "rm":
		return screenRm(rest)
	case "git":
		return screenGit(rest)
	case "terraform", "tofu":
		if sub := firstPositional(rest); sub == "apply" || sub == "destroy" {
			return risky(name + " " + sub)
		}
	case "kubectl":
		if sub := subcommand(rest, kubectlValueFlags); sub == "apply" || sub == "delete" {
			return risky("kubectl " + sub)
		}
	}
	return clean
}

func screenRm(args []string) Result {
	recursive := false
	var targets []string
	for _, a := range args {
		switch {
		case a == "--recursive":
			recursive = true
		case strings.HasPrefix(a, "--"):
		case strings.HasPrefix(a, "-"):
			if strings.ContainsAny(a, "rR") {
				recursive = true
			}
		default:
			targets = append(targets, a)
		}
	}
	if !recursive {
		return clean
	}
	for _, t := range targets {
		if isDangerousTarget(t) {
			return risky("rm -r targeting " + t)
		}
	}
	return clean
}

func screenGit(args []string) Result {
	switch subcommand(args, gitValueFlags) {
	case "push":
		for _, a := range args {
			if a == "--force" || a == "-f" || strings.HasPrefix(a, "--force-with-lease") || strings.HasPrefix(a, "+") {
				return risky("git push --force")
			}
		}
	case "reset":
		for _, a := range args {
			if a == "--hard" {
				return risky("git reset --hard")
			}
		}
	}
	return clean
}

func isDangerousTarget(t string) bool {
	if strings.Contains(t, "..") {
		return true
	}
	switch strings.TrimRight(t, "/*") {
	case "", "~", "$HOME", "${HOME}", "/etc", "/usr", "/var", "/home", "/Users":
		return true
	}
	return false
}

func isSystemPath(p string) bool {
	if p == "" {
		return false
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for _, f := range sensitiveHomeFiles {
		if strings.HasPrefix(p, f) || strings.Contains(p, strings.TrimPrefix(f, "~")) {
			return true
		}
	}
	return false
}

// stripWrapper drops a wrapper's own flags and VAR=value assignments.
func stripWrapper(args []string) []string {
	for len(args) > 0 && (strings.HasPrefix(args[0], "-") || strings.Contains(args[0], "=")) {
		args = args[1:]
	}
	return args
}

var (
	gitValueFlags     = map[string]bool{"-C": true, "-c": true, "--git-dir": true, "--work-tree": true}
	kubectlValueFlags = map[string]bool{
		"-n": true, "--namespace": true, "--context": true, "--kubeconfig": true,
		"--cluster": true, "--user": true, "-s": true, "--server": true,
	}
)

func firstPositional(args []string) string {
	return subcommand(args, nil)
}

// subcommand returns the first positional argument, skipping flags and the
// values of flags listed in valueFlags.
func subcommand(args []string, valueFlags map[string]bool) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			return a
		}
		if valueFlags[a] {
			i++
		}
	}
	return ""
}

func base(cmd string) string { return path.Base(cmd) }

// words renders each shell word back to source text, so "$HOME" stays
// visible rather than collapsing to an empty literal.
func words(ws []*syntax.Word) []string {
	out := make([]string, 0, len(ws))
	printer := syntax.NewPrinter()
	for _, w := range ws {
		if lit := w.Lit(); lit != "" {
			out = append(out, lit)
			continue
		}
		var sb strings.Builder
		if err := printer.Print(&sb, w); err != nil {
			continue
		}
		out = append(out, unquote(sb.String()))
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
