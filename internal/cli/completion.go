package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/qsag/internal/config"
)

// completionFlags lists the flags offered by every completion script.
var completionFlags = []string{
	"-h", "--help", "-V", "--version",
	"--family", "--coefs", "--samples", "--rho-max", "--precision", "--timeout",
	"--format", "--output", "-o", "-v", "-d", "--details", "--quiet", "-q",
	"--json", "--server", "--port", "--no-color", "--interactive", "-i", "--completion",
}

// GenerateCompletion writes a shell completion script.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish", "powershell").
//   - families: The registered family names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, families []string) error {
	values := completionValues{
		families:   strings.Join(append(append([]string{}, families...), "all"), " "),
		formats:    strings.Join(config.Formats, " "),
		precisions: "float64 float32",
		shells:     "bash zsh fish powershell",
	}
	switch shell {
	case "bash":
		return generateBashCompletion(out, values)
	case "zsh":
		return generateZshCompletion(out, values)
	case "fish":
		return generateFishCompletion(out, values)
	case "powershell", "ps":
		return generatePowerShellCompletion(out, values)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

// completionValues holds the space-separated choices of enumerated flags.
type completionValues struct {
	families   string
	formats    string
	precisions string
	shells     string
}

func generateBashCompletion(out io.Writer, v completionValues) error {
	_, err := fmt.Fprintf(out, `# Bash completion script for qsag
# Add this to your ~/.bashrc or ~/.bash_completion

_qsag_completions() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        --family|-family)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        --format|-format)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        --precision|-precision)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        --completion|-completion)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        --output|-output|-o)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        --coefs|--samples|--rho-max|--timeout|--port)
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
    return 0
}

complete -F _qsag_completions qsag
`, v.families, v.formats, v.precisions, v.shells, strings.Join(completionFlags, " "))
	return err
}

func generateZshCompletion(out io.Writer, v completionValues) error {
	_, err := fmt.Fprintf(out, `#compdef qsag
# Zsh completion script for qsag
# Add this file to a directory in your $fpath as _qsag

_qsag() {
    _arguments \
        '(-h --help)'{-h,--help}'[Show help]' \
        '(-V --version)'{-V,--version}'[Show version]' \
        '--family[Polynomial family]:family:(%s)' \
        '--coefs[Coefficients as A<order>=<weight>]:coefs:' \
        '--samples[Grid size along each axis]:samples:' \
        '--rho-max[Pupil radius]:radius:' \
        '--precision[Cache precision]:precision:(%s)' \
        '--timeout[Build timeout]:duration:' \
        '--format[Export format]:format:(%s)' \
        '(-o --output)'{-o,--output}'[Output file]:file:_files' \
        '-v[Print the full sag map]' \
        '(-d --details)'{-d,--details}'[Display cache statistics]' \
        '(-q --quiet)'{-q,--quiet}'[Quiet mode]' \
        '--json[JSON summary]' \
        '--server[Start the HTTP server]' \
        '--port[Server port]:port:' \
        '--no-color[Disable colors]' \
        '(-i --interactive)'{-i,--interactive}'[Interactive shell]' \
        '--completion[Generate completion script]:shell:(%s)'
}

_qsag "$@"
`, v.families, v.precisions, v.formats, v.shells)
	return err
}

func generateFishCompletion(out io.Writer, v completionValues) error {
	_, err := fmt.Fprintf(out, `# Fish completion script for qsag
# Save to ~/.config/fish/completions/qsag.fish

complete -c qsag -s h -l help -d 'Show help'
complete -c qsag -s V -l version -d 'Show version'
complete -c qsag -l family -x -a '%s' -d 'Polynomial family'
complete -c qsag -l coefs -x -d 'Coefficients as A<order>=<weight>'
complete -c qsag -l samples -x -d 'Grid size along each axis'
complete -c qsag -l rho-max -x -d 'Pupil radius'
complete -c qsag -l precision -x -a '%s' -d 'Cache precision'
complete -c qsag -l timeout -x -d 'Build timeout'
complete -c qsag -l format -x -a '%s' -d 'Export format'
complete -c qsag -s o -l output -r -F -d 'Output file'
complete -c qsag -s v -d 'Print the full sag map'
complete -c qsag -s d -l details -d 'Display cache statistics'
complete -c qsag -s q -l quiet -d 'Quiet mode'
complete -c qsag -l json -d 'JSON summary'
complete -c qsag -l server -d 'Start the HTTP server'
complete -c qsag -l port -x -d 'Server port'
complete -c qsag -l no-color -d 'Disable colors'
complete -c qsag -s i -l interactive -d 'Interactive shell'
complete -c qsag -l completion -x -a '%s' -d 'Generate completion script'
`, v.families, v.precisions, v.formats, v.shells)
	return err
}

func generatePowerShellCompletion(out io.Writer, v completionValues) error {
	quoted := func(list string) string {
		parts := strings.Fields(list)
		for i, p := range parts {
			parts[i] = "'" + p + "'"
		}
		return strings.Join(parts, ", ")
	}
	flags := make([]string, 0, len(completionFlags))
	for _, f := range completionFlags {
		flags = append(flags, "'"+f+"'")
	}

	_, err := fmt.Fprintf(out, `# PowerShell completion script for qsag
# Add this to your PowerShell profile ($PROFILE)

Register-ArgumentCompleter -Native -CommandName qsag -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $choices = @{
        '--family'     = @(%s)
        '--format'     = @(%s)
        '--precision'  = @(%s)
        '--completion' = @(%s)
    }
    $flags = @(%s)

    $previous = $commandAst.CommandElements[-1].ToString()
    if ($wordToComplete -ne '' -and $commandAst.CommandElements.Count -gt 1) {
        $previous = $commandAst.CommandElements[-2].ToString()
    }

    $candidates = $flags
    if ($choices.ContainsKey($previous)) {
        $candidates = $choices[$previous]
    }
    $candidates | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
    }
}
`, quoted(v.families), quoted(v.formats), quoted(v.precisions), quoted(v.shells), strings.Join(flags, ", "))
	return err
}
