// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/promptctx/internal/config"
	"github.com/temirov/promptctx/internal/services/clipboard"
	"github.com/temirov/promptctx/internal/services/web"
	"github.com/temirov/promptctx/internal/session"
	"github.com/temirov/promptctx/internal/tokenizer"
	"github.com/temirov/promptctx/internal/utils"
)

const (
	portFlagName         = "port"
	hostFlagName         = "host"
	configFlagName       = "config"
	exclusionFlagName    = "e"
	gitignoreFlagName    = "gitignore"
	ignoreFileFlagName   = "ignore"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	clipboardFlagName    = "clipboard"
	verboseFlagName      = "verbose"
	globalFlagName       = "global"
	forceFlagName        = "force"
	versionTemplate      = "promptctx version: {{.Version}}\n"
	rootUse              = "promptctx <project_dir>"
	rootShortDescription = "browse a project in the browser and build an LLM prompt from selected files"
	rootLongDescription  = `promptctx serves a local web page listing the project directory.
Tick files in the tree to append them to the prompt; the preview and the Copy
button always show the same text. Reset clears the selection.`
	rootUsageExample = `  # Serve the current project on the default port
  promptctx .

  # Serve on localhost only, counting tokens for the prompt
  promptctx ~/src/service --host 127.0.0.1 --port 9000 --tokens`

	configUse                   = "config"
	configShortDescription      = "manage promptctx configuration"
	configInitUse               = "init [project_dir]"
	configInitShortDescription  = "write a default configuration file"
	portFlagDescription         = "port to run the server on"
	hostFlagDescription         = "host to bind to"
	configFlagDescription       = "configuration file to use instead of <project_dir>/" + utils.LocalConfigFileName
	exclusionFlagDescription    = "hide entries matching this pattern from the tree"
	gitignoreFlagDescription    = "hide entries matched by .gitignore"
	ignoreFileFlagDescription   = "hide entries matched by .ignore"
	tokensFlagDescription       = "report the token count of the prompt"
	modelFlagDescription        = "tokenizer model to use for token counting"
	clipboardFlagDescription    = "also copy the prompt to the clipboard of the host running the server"
	verboseFlagDescription      = "log every request"
	globalFlagDescription       = "write the global configuration instead of the project one"
	forceFlagDescription        = "overwrite an existing configuration file"
	localURLFormat              = "  Local:    http://localhost:%s\n"
	tunnelHintFormat            = "  ssh -L %s:%s:%s [YOUR_USERNAME]@%s\n"
	configWrittenFormat         = "Configuration written to %s\n"
	warningTokenizerMessage     = "token counting disabled"
	warningClipboardUnavailable = "host clipboard unavailable, copying in the browser only"
	errorLoadConfigFormat       = "load configuration: %w"
	errorProjectPathFormat      = "resolve project directory %s: %w"
	errorServerFormat           = "start server: %w"
	errorNotDirectoryFormat     = "%s: %w"
	fallbackHostname            = "localhost"
)

// Execute runs the promptctx application until it is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCommand := createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// serveOptions stores the values of the root command flags.
type serveOptions struct {
	port              int
	host              string
	configPath        string
	exclusionPatterns []string
	useGitignore      bool
	useIgnoreFile     bool
	tokensEnabled     bool
	model             string
	hostClipboard     bool
	verbose           bool
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var options serveOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Version:       utils.GetApplicationVersion(),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runServe(command, arguments[0], options)
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)

	flagSet := rootCommand.Flags()
	flagSet.IntVar(&options.port, portFlagName, config.DefaultPort, portFlagDescription)
	flagSet.StringVar(&options.host, hostFlagName, config.DefaultHost, hostFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, config.DefaultTokenizerModel, modelFlagDescription)
	registerBooleanFlag(flagSet, &options.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	registerBooleanFlag(flagSet, &options.useIgnoreFile, ignoreFileFlagName, false, ignoreFileFlagDescription)
	registerBooleanFlag(flagSet, &options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	registerBooleanFlag(flagSet, &options.hostClipboard, clipboardFlagName, false, clipboardFlagDescription)
	registerBooleanFlag(flagSet, &options.verbose, verboseFlagName, false, verboseFlagDescription)

	rootCommand.AddCommand(createConfigCommand())
	return rootCommand
}

// createConfigCommand returns the config command group.
func createConfigCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			initOptions := config.InitOptions{Target: config.InitTargetLocal, Force: force}
			if global {
				initOptions.Target = config.InitTargetGlobal
			}
			if len(arguments) == 1 {
				initOptions.ProjectDirectory = arguments[0]
			}
			writtenPath, initErr := config.InitializeConfiguration(initOptions)
			if initErr != nil {
				return initErr
			}
			_, _ = fmt.Fprintf(command.OutOrStdout(), configWrittenFormat, writtenPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)

	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
	}
	configCommand.AddCommand(initCommand)
	return configCommand
}

// flagOverrides converts explicitly set flags into a configuration layer that
// takes precedence over configuration files.
func flagOverrides(command *cobra.Command, options serveOptions) config.ApplicationConfiguration {
	var overrides config.ApplicationConfiguration
	flagSet := command.Flags()
	if flagSet.Changed(hostFlagName) {
		overrides.Server.Host = options.host
	}
	if flagSet.Changed(portFlagName) {
		port := options.port
		overrides.Server.Port = &port
	}
	if flagSet.Changed(verboseFlagName) {
		verbose := options.verbose
		overrides.Server.Verbose = &verbose
	}
	if flagSet.Changed(tokensFlagName) {
		tokensEnabled := options.tokensEnabled
		overrides.Prompt.Tokens.Enabled = &tokensEnabled
	}
	if flagSet.Changed(modelFlagName) {
		overrides.Prompt.Tokens.Model = options.model
	}
	if flagSet.Changed(clipboardFlagName) {
		hostClipboard := options.hostClipboard
		overrides.Prompt.Clipboard = &hostClipboard
	}
	if flagSet.Changed(exclusionFlagName) {
		overrides.Paths.Exclude = options.exclusionPatterns
	}
	if flagSet.Changed(gitignoreFlagName) {
		useGitignore := options.useGitignore
		overrides.Paths.UseGitignore = &useGitignore
	}
	if flagSet.Changed(ignoreFileFlagName) {
		useIgnoreFile := options.useIgnoreFile
		overrides.Paths.UseIgnoreFile = &useIgnoreFile
	}
	return overrides
}

func runServe(command *cobra.Command, projectDirectory string, options serveOptions) error {
	absoluteProjectDirectory, absoluteErr := filepath.Abs(projectDirectory)
	if absoluteErr != nil {
		return fmt.Errorf(errorProjectPathFormat, projectDirectory, absoluteErr)
	}
	if projectInfo, statErr := os.Stat(absoluteProjectDirectory); statErr != nil || !projectInfo.IsDir() {
		return fmt.Errorf(errorNotDirectoryFormat, absoluteProjectDirectory, session.ErrNotDirectory)
	}
	fileConfiguration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		ProjectDirectory: absoluteProjectDirectory,
		ExplicitFilePath: options.configPath,
	})
	if loadErr != nil {
		return fmt.Errorf(errorLoadConfigFormat, loadErr)
	}
	settings := fileConfiguration.Merge(flagOverrides(command, options)).Settings()

	logger, loggerErr := utils.NewApplicationLogger(settings.Verbose)
	if loggerErr != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerErr)
	}
	defer func() { _ = logger.Sync() }()

	sessionOptions := session.Options{
		RootPath:          absoluteProjectDirectory,
		ExclusionPatterns: settings.Exclude,
		UseGitignore:      settings.UseGitignore,
		UseIgnoreFile:     settings.UseIgnoreFile,
		Logger:            logger,
	}
	if settings.TokensEnabled {
		counter, modelName, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: settings.TokenModel})
		if counterErr != nil {
			logger.Warn(warningTokenizerMessage, zap.Error(counterErr))
		} else {
			sessionOptions.TokenCounter = counter
			sessionOptions.TokenModel = modelName
		}
	}
	if settings.HostClipboard {
		clipboardService := clipboard.NewService()
		if clipboardService.Available() {
			sessionOptions.Copier = clipboardService
		} else {
			logger.Warn(warningClipboardUnavailable)
		}
	}

	promptSession, sessionErr := session.New(sessionOptions)
	if sessionErr != nil {
		return sessionErr
	}

	server, serverErr := web.NewServer(web.Config{
		Address: net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port)),
		Session: promptSession,
		Logger:  logger,
	})
	if serverErr != nil {
		return fmt.Errorf(errorServerFormat, serverErr)
	}
	output := command.OutOrStdout()
	return server.Run(command.Context(), func(address string) {
		printBanner(output, address)
	})
}

// printBanner prints the local URL and an SSH tunnel command for reaching the
// server from another machine.
func printBanner(output io.Writer, address string) {
	_, port, splitErr := net.SplitHostPort(address)
	if splitErr != nil {
		port = address
	}
	hostname, hostnameErr := os.Hostname()
	if hostnameErr != nil || hostname == "" {
		hostname = fallbackHostname
	}
	_, _ = fmt.Fprintf(output, localURLFormat, port)
	_, _ = fmt.Fprintf(output, tunnelHintFormat, port, hostname, port, hostname)
}
