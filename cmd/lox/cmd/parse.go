package cmd

import (
	"context"
	"fmt"

	mdwast "github.com/msto63/lox/foundation/lox/ast"
	"github.com/msto63/lox/internal/frontend/service"
	"github.com/spf13/cobra"
)

var (
	parseExpr    string
	parseFormat  string
	parseRemote  string
	parseSummary bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse one Lox expression",
	Long: `Parse a single Lox expression from a file, -e or stdin.

Formats:
  sexpr  prefix form, e.g. (+ 1 (* 2 3))
  tree   indented node dump
  json   encoded tree with diagnostics
  yaml   same as json, as YAML

Diagnostics go to stderr and the exit status is 65.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseExpr, "expr", "e", "", "source text to parse")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "sexpr", "output format: sexpr, tree, json, yaml")
	parseCmd.Flags().StringVar(&parseRemote, "remote", "", "parse on a running server (host:port)")
	parseCmd.Flags().BoolVar(&parseSummary, "summary", false, "print node count, depth and operators to stderr")
}

func runParse(cmd *cobra.Command, args []string) error {
	source, err := readSource(cmd, parseExpr, cmd.Flags().Changed("expr"), args)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	if parseRemote != "" {
		return runRemoteParse(ctx, cmd, source)
	}

	resp, err := newService().Parse(ctx, service.Request{Source: source, Origin: "cli"})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch parseFormat {
	case "sexpr":
		if resp.OK() {
			fmt.Fprintln(out, mdwast.Print(resp.Expr))
		}
	case "tree":
		if resp.OK() {
			fmt.Fprint(out, mdwast.NewTreePrinter().Print(resp.Expr))
		}
	default:
		if err := writeStructured(out, parseFormat, resp.Map()); err != nil {
			return err
		}
	}

	if parseSummary && resp.OK() {
		s := mdwast.Summarize(resp.Expr)
		fmt.Fprintf(cmd.ErrOrStderr(), "nodes=%d depth=%d operators=%v variables=%v\n", s.Nodes, s.Depth, s.Operators, s.Variables)
	}

	return reportDiagnostics(cmd.ErrOrStderr(), resp.Diagnostics)
}

func runRemoteParse(ctx context.Context, cmd *cobra.Command, source string) error {
	if parseFormat == "tree" {
		return &exitError{code: ExitUsage, err: fmt.Errorf("tree format is not available with --remote")}
	}

	c, err := dialRemote(parseRemote)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Parse(ctx, source)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if parseFormat == "sexpr" {
		if result.OK {
			fmt.Fprintln(out, result.SExpr)
		}
	} else {
		var ast interface{}
		if result.AST != nil {
			ast = result.AST
		}
		err := writeStructured(out, parseFormat, map[string]interface{}{
			"run_id":      result.RunID,
			"ok":          result.OK,
			"token_count": result.TokenCount,
			"ast":         ast,
			"sexpr":       result.SExpr,
			"diagnostics": service.EncodeDiagnostics(result.Diagnostics),
		})
		if err != nil {
			return err
		}
	}

	return reportDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)
}
