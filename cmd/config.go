package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "conformance"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "CONFORMANCE"

	encoderFlagName     = "encoder"
	decoderFlagName     = "decoder"
	validatorFlagName   = "validator"
	harnessFlagName     = "harness"
	testFileFlagName    = "test_file"
	codecsFileFlagName  = "codecs_file"
	inputsFileFlagName  = "inputs_file"
	basesFileFlagName   = "bases_file"
	inputDirFlagName    = "input_dir"
	baseDirFlagName     = "base_dir"
	workDirFlagName     = "work_dir"
	setsFlagName        = "sets"
	progressFlagName    = "progress"
	parallelFlagName    = "parallel"
	decodeOnlyFlagName  = "decode_only"
	isolationFlagName   = "isolation"
	uiFlagName          = "ui"
	hashesFlagName      = "hashes"
	referenceFlagName   = "reference"
	verboseFlagName     = "verbose"
	decodeBaseFlagName  = "base"
	decodeMatchFlagName = "pattern"

	encoderKey      = "tools.encoder"
	decoderKey      = "tools.decoder"
	validatorKey    = "tools.validator"
	harnessKey      = "tools.harness"
	testFileKey     = "files.tests"
	codecsFileKey   = "files.codecs"
	inputsFileKey   = "files.inputs"
	basesFileKey    = "files.bases"
	inputDirKey     = "dirs.input"
	baseDirKey      = "dirs.base"
	workDirKey      = "dirs.work"
	setsKey         = "run.sets"
	progressKey     = "run.progress"
	parallelKey     = "run.parallel"
	decodeOnlyKey   = "run.decode_only"
	isolationKey    = "run.isolation"
	uiKey           = "run.ui"
	hashesKey       = "report.hashes"
	referenceKey    = "report.reference"
	profileKey      = "manifest.profile"
	pictureRateKey  = "manifest.picture_rate"
	releaseKey      = "manifest.release"
	contactKey      = "manifest.contact"
	decodeBaseKey   = "decode.base"
	decodeMatchKey  = "decode.pattern"
	logFilenameKey  = "log.filename"
	logLevelKey     = "log.level"
	logVerboseKey   = "log.verbose"
	logMaxSizeKey   = "log.max_size"
	logMaxBackupKey = "log.max_backups"
	logMaxAgeKey    = "log.max_age"
	logCompressKey  = "log.compress"

	isolationGoroutine = "goroutine"
	isolationProcess   = "process"

	defaultTestFile    = "tests.json"
	defaultCodecsFile  = "codecs.json"
	defaultInputsFile  = "inputs.json"
	defaultBasesFile   = "bases.json"
	defaultInputDir    = "inputs"
	defaultBaseDir     = "bases"
	defaultWorkDir     = "."
	defaultProgress    = "none"
	defaultParallel    = 0
	defaultIsolation   = isolationGoroutine
	defaultUI          = "simple"
	defaultHashes      = "hashes.json"
	defaultProfile     = "Main"
	defaultPictureRate = 50
	defaultRelease     = "LTM 5.4"
	defaultDecodeBase  = "auto"

	defaultLogFilename   = ".conformance.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	configureViper()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return
		}

		_, _ = fmt.Fprintf(os.Stderr, "warning: ignoring %s: %v\n", configFileName, err)
	}
}

// configureViper sets where configuration is read from: conformance.yaml in
// the working directory and CONFORMANCE_* environment variables.
func configureViper() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(encoderKey, platformExe("..", "ModelEncoder"))
	viper.SetDefault(decoderKey, platformExe("..", "ModelDecoder"))
	viper.SetDefault(validatorKey, platformExe("..", "lcevc_validator"))
	viper.SetDefault(harnessKey, platformExe("..", "lcevc_dec_harness"))

	viper.SetDefault(testFileKey, defaultTestFile)
	viper.SetDefault(codecsFileKey, defaultCodecsFile)
	viper.SetDefault(inputsFileKey, defaultInputsFile)
	viper.SetDefault(basesFileKey, defaultBasesFile)
	viper.SetDefault(inputDirKey, defaultInputDir)
	viper.SetDefault(baseDirKey, defaultBaseDir)
	viper.SetDefault(workDirKey, defaultWorkDir)

	viper.SetDefault(setsKey, "")
	viper.SetDefault(progressKey, defaultProgress)
	viper.SetDefault(parallelKey, defaultParallel)
	viper.SetDefault(decodeOnlyKey, false)
	viper.SetDefault(isolationKey, defaultIsolation)
	viper.SetDefault(uiKey, defaultUI)
	viper.SetDefault(hashesKey, defaultHashes)
	viper.SetDefault(referenceKey, "")

	viper.SetDefault(profileKey, defaultProfile)
	viper.SetDefault(pictureRateKey, defaultPictureRate)
	viper.SetDefault(releaseKey, defaultRelease)
	viper.SetDefault(contactKey, "")

	viper.SetDefault(decodeBaseKey, defaultDecodeBase)
	viper.SetDefault(decodeMatchKey, "**/*.bit")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// platformExe is the platform specific path of a tool executable.
func platformExe(dir, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	return filepath.Join(dir, name)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// workerLogPath keeps worker processes from rotating the coordinator's log.
func workerLogPath(logPath string) string {
	return fmt.Sprintf("%s.worker-%d", logPath, os.Getpid())
}

// configureLogger configures the global slog logger and tags it with a run id.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool, runID string) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	if runID == "" {
		runID = uuid.NewString()
	}

	globalLogger = slog.New(handler).With("run", runID)
	slog.SetDefault(globalLogger)
}
