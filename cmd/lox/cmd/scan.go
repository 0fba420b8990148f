package cmd

import (
	"fmt"
	"io"

	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
	"github.com/msto63/lox/internal/frontend/client"
	"github.com/msto63/lox/internal/frontend/service"
	coreGrpc "github.com/msto63/lox/pkg/core/grpc"
	"github.com/spf13/cobra"
)

var (
	scanExpr   string
	scanFormat string
	scanRemote string
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Tokenize Lox source",
	Long: `Tokenize Lox source from a file, -e or stdin.

Each token is printed as "TYPE lexeme literal". Lexical errors go to
stderr and the exit status is 65.

Examples:
  lox scan program.lox
  lox scan -e 'var x = 1;'
  echo '1 + 2' | lox scan --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanExpr, "expr", "e", "", "source text to scan")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "output format: text, json, yaml")
	scanCmd.Flags().StringVar(&scanRemote, "remote", "", "scan on a running server (host:port)")
}

func runScan(cmd *cobra.Command, args []string) error {
	source, err := readSource(cmd, scanExpr, cmd.Flags().Changed("expr"), args)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	var tokens []mdwtoken.Token
	var diagnostics []mdwdiag.Diagnostic
	var structured map[string]interface{}

	if scanRemote != "" {
		c, err := dialRemote(scanRemote)
		if err != nil {
			return err
		}
		defer c.Close()

		result, err := c.Scan(ctx, source)
		if err != nil {
			return err
		}
		tokens, diagnostics = result.Tokens, result.Diagnostics
		structured = map[string]interface{}{
			"run_id":      result.RunID,
			"ok":          result.OK,
			"tokens":      service.EncodeTokens(tokens),
			"diagnostics": service.EncodeDiagnostics(diagnostics),
		}
	} else {
		resp, err := newService().Scan(ctx, service.Request{Source: source, Origin: "cli"})
		if err != nil {
			return err
		}
		tokens, diagnostics = resp.Tokens, resp.Diagnostics
		structured = resp.Map()
	}

	out := cmd.OutOrStdout()
	if scanFormat == "text" {
		printTokens(out, tokens)
	} else if err := writeStructured(out, scanFormat, structured); err != nil {
		return err
	}

	return reportDiagnostics(cmd.ErrOrStderr(), diagnostics)
}

func printTokens(w io.Writer, tokens []mdwtoken.Token) {
	for _, t := range tokens {
		fmt.Fprintln(w, t.String())
	}
}

// reportDiagnostics prints diagnostics and turns them into exit status 65
func reportDiagnostics(w io.Writer, ds []mdwdiag.Diagnostic) error {
	for _, d := range ds {
		fmt.Fprintln(w, d.String())
	}
	if len(ds) > 0 {
		return errDiagnostics
	}
	return nil
}

func dialRemote(addr string) (*client.Client, error) {
	cfg := coreGrpc.DefaultClientConfig(addr)
	cfg.Logger = app.logger
	return client.New(cfg)
}
