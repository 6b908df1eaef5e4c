package common

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	logger "github.com/kthomas/go-logger"
)

// DefaultPowHashPrefix is the difficulty rule applied when POW_HASH_PREFIX is not set
const DefaultPowHashPrefix = "000"

// DefaultPowMaxAttempts bounds the client-side nonce search; verification is a
// single digest computation and is never subject to this ceiling
const DefaultPowMaxAttempts = int64(100000)

var (
	// Log is the configured logger
	Log *logger.Logger

	// ConsumeNATSStreamingSubscriptions toggles NATS jetstream consumers at startup
	ConsumeNATSStreamingSubscriptions bool

	// PowHashPrefix is the literal hex prefix a solution digest must carry
	PowHashPrefix string

	// PowMaxAttempts is the advertised nonce search ceiling for clients
	PowMaxAttempts int64

	// SolutionStoragePath is the filesystem root for uploaded solution artifacts
	SolutionStoragePath string
)

func init() {
	godotenv.Load()

	requireLogger()
	requirePoWParams()
	requireSolutionStorage()

	ConsumeNATSStreamingSubscriptions = os.Getenv("CONSUME_NATS_STREAMING_SUBSCRIPTIONS") == "true"
}

func requireLogger() {
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		lvl = "INFO"
	}

	var endpoint *string
	if os.Getenv("SYSLOG_ENDPOINT") != "" {
		endpt := os.Getenv("SYSLOG_ENDPOINT")
		endpoint = &endpt
	}

	Log = logger.NewLogger("workvalidation", lvl, endpoint)
}

func requirePoWParams() {
	PowHashPrefix = os.Getenv("POW_HASH_PREFIX")
	if PowHashPrefix == "" {
		PowHashPrefix = DefaultPowHashPrefix
	}

	PowMaxAttempts = DefaultPowMaxAttempts
	if os.Getenv("POW_MAX_ATTEMPTS") != "" {
		attempts, err := strconv.ParseInt(os.Getenv("POW_MAX_ATTEMPTS"), 10, 64)
		if err != nil {
			Log.Panicf("failed to parse POW_MAX_ATTEMPTS; %s", err.Error())
		}
		PowMaxAttempts = attempts
	}
}

func requireSolutionStorage() {
	SolutionStoragePath = os.Getenv("SOLUTION_STORAGE_PATH")
	if SolutionStoragePath == "" {
		SolutionStoragePath = "./uploads"
	}
}
