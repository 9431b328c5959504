package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	switchFlagTypeName       = "bool"
	switchFlagImplicitValue  = "true"
	switchFlagAcceptedValues = "true, false, yes, no, on, off, 1, 0"
	switchFlagInvalidFormat  = "invalid value %q for --%s; accepted values: %s"
	longFlagPrefix           = "--"
	argumentsTerminator      = "--"
)

// switchLiterals lists every spelling accepted for a switch value.
var switchLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

func parseSwitchLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = switchFlagImplicitValue
	}
	parsed, known := switchLiterals[normalized]
	return parsed, known
}

// switchValue is a pflag.Value for boolean switches that also accept
// yes/no and on/off spellings.
type switchValue struct {
	target *bool
	name   string
}

func (value *switchValue) Set(input string) error {
	parsed, known := parseSwitchLiteral(input)
	if !known {
		return fmt.Errorf(switchFlagInvalidFormat, input, value.name, switchFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *switchValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *switchValue) Type() string {
	return switchFlagTypeName
}

// registerBooleanFlag adds a switch that is set to true when given bare and
// accepts an explicit literal after "=".
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&switchValue{target: target, name: name}, name, usage)
	flag := flagSet.Lookup(name)
	flag.DefValue = strconv.FormatBool(defaultValue)
	flag.NoOptDefVal = switchFlagImplicitValue
}

// normalizeBooleanFlagArguments rewrites "--name value" into "--name=value"
// when name is a switch anywhere in the command tree and value is a switch
// literal. Other arguments, such as the project directory, pass through.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	switchNames := map[string]struct{}{}
	collectBooleanFlagNames(command, switchNames)
	if len(switchNames) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == argumentsTerminator {
			return append(normalized, arguments[index:]...)
		}
		flagName := strings.TrimPrefix(argument, longFlagPrefix)
		_, isSwitch := switchNames[flagName]
		if strings.HasPrefix(argument, longFlagPrefix) && isSwitch && index+1 < len(arguments) {
			if _, known := parseSwitchLiteral(arguments[index+1]); known && arguments[index+1] != "" {
				normalized = append(normalized, argument+"="+arguments[index+1])
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	collect := func(flag *pflag.Flag) {
		if flag.Value.Type() == switchFlagTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(collect)
	command.Flags().VisitAll(collect)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
