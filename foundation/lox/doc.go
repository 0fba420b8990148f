// Package lox is the front end of the Lox scripting language: a scanner
// that turns source text into tokens and a recursive-descent parser that
// turns tokens into an expression tree.
//
// Package: lox
// Title: Lox Front End
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// The subpackages can be used on their own:
//
//	token    token kinds, the Token record and the keyword table
//	scanner  source text → []token.Token
//	parser   []token.Token → ast.Expr
//	ast      expression nodes, visitors, printers, encoder
//	diag     the diagnostic sink shared by scanner and parser
//
// Engine wires them together and adds size limits, timing and logging:
//
//	engine := lox.New(lox.Options{Logger: logger})
//	result, err := engine.Parse("1 + 2 * 3")
//	if err != nil {
//		return err
//	}
//	if !result.OK() {
//		for _, d := range result.Diagnostics {
//			fmt.Fprintln(os.Stderr, d)
//		}
//		return result.Err()
//	}
//	fmt.Println(ast.Print(result.Expr)) // (+ 1 (* 2 3))
package lox
