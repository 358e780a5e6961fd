package grammar

// Diagnostic codes reported while building a grammar.
const (
	CodeDuplicateLexerSymbol           = "DUPLICATE_LEXER_SYMBOL"
	CodeImplicitLexerSymbol            = "IMPLICIT_LEXER_SYMBOL"
	CodeDuplicateNonterminalDefinition = "DUPLICATE_NONTERMINAL_DEFINITION"
	CodeUndefinedNonterminal           = "UNDEFINED_NONTERMINAL"
	CodeUnusedTerminalSymbol           = "UNUSED_TERMINAL_SYMBOL"
	CodeNoGrammar                      = "NO_GRAMMAR"
	CodeRegexSyntaxError               = "REGEX_SYNTAX_ERROR"
	CodeNoStartSymbol                  = "NO_START_SYMBOL"
	CodeUnresolvedSRConflict           = "UNRESOLVED_SR_CONFLICT"
	CodeUnresolvedRRConflict           = "UNRESOLVED_RR_CONFLICT"
)
