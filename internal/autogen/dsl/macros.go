package dsl

import "github.com/mvp-joe/propscan/internal/autogen/tree"

// Macro identifies a recognized class-body declaration.
type Macro int

const (
	MacroNone Macro = iota
	MacroProp
	MacroTokenProp
	MacroTimestampedTokenProp
	MacroCreatedProp
	MacroUpdatedProp
	MacroMerchantProp
	MacroMerchantTokenProp
	MacroModel
)

var macroNames = map[string]Macro{
	"prop":                   MacroProp,
	"token_prop":             MacroTokenProp,
	"timestamped_token_prop": MacroTimestampedTokenProp,
	"created_prop":           MacroCreatedProp,
	"updated_prop":           MacroUpdatedProp,
	"merchant_prop":          MacroMerchantProp,
	"merchant_token_prop":    MacroMerchantTokenProp,
	"model":                  MacroModel,
}

// LookupMacro maps a method name to its macro identity.
func LookupMacro(fun string) Macro {
	return macroNames[fun]
}

// IsProperty reports whether m declares a property.
func (m Macro) IsProperty() bool {
	switch m {
	case MacroProp, MacroTokenProp, MacroTimestampedTokenProp, MacroCreatedProp,
		MacroUpdatedProp, MacroMerchantProp, MacroMerchantTokenProp:
		return true
	case MacroNone, MacroModel:
		return false
	}
	return false
}

func (m Macro) String() string {
	for name, macro := range macroNames {
		if macro == m {
			return name
		}
	}
	return "none"
}

// MerchantTokenType is the type recorded for merchant_token_prop.
var MerchantTokenType = QualifiedName{"Opus", "Autogen", "Tokens", "AccountModelMerchantToken"}

// parseProp turns a property macro call into a declaration. It returns false
// when the call's arguments do not have the shape the macro expects.
func parseProp(macro Macro, send *tree.Send) (PropertyDeclaration, bool) {
	switch macro {
	case MacroProp:
		args := send.PositionalArgs()
		if len(args) == 0 {
			return PropertyDeclaration{}, false
		}
		lit, ok := args[0].(*tree.Literal)
		if !ok || !lit.IsSymbol() {
			return PropertyDeclaration{}, false
		}
		decl := PropertyDeclaration{Name: lit.Value}
		if len(args) > 1 {
			decl.Type = stringPtr(args[1].Text())
		}
		return decl, true
	case MacroTokenProp, MacroTimestampedTokenProp:
		return fixedProp("token", "String"), true
	case MacroCreatedProp:
		return fixedProp("created", "Float"), true
	case MacroUpdatedProp:
		return fixedProp("updated", "Float"), true
	case MacroMerchantProp:
		return fixedProp("merchant", "String"), true
	case MacroMerchantTokenProp:
		return fixedProp("merchant", MerchantTokenType.String()), true
	case MacroNone, MacroModel:
		return PropertyDeclaration{}, false
	}
	return PropertyDeclaration{}, false
}

func fixedProp(name, typ string) PropertyDeclaration {
	return PropertyDeclaration{Name: name, Type: stringPtr(typ)}
}

func stringPtr(s string) *string {
	return &s
}
