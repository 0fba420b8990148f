package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// readSource returns the -e expression, the named file, or stdin when
// the argument is "-" or missing
func readSource(cmd interface{ InOrStdin() io.Reader }, expr string, exprSet bool, args []string) (string, error) {
	if exprSet {
		if len(args) > 0 {
			return "", &exitError{code: ExitUsage, err: fmt.Errorf("use either -e or a file, not both")}
		}
		return expr, nil
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

// writeStructured encodes v as indented JSON or YAML
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return &exitError{code: ExitUsage, err: fmt.Errorf("unknown format %q", format)}
	}
}
