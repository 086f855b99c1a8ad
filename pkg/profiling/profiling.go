package profiling

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/formsnap/signup-api/config"
	"github.com/formsnap/signup-api/pkg/logger"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Submission stages, attached as the "stage" label of profile samples.
const (
	StageValidate = "validate"
	StageUpload   = "upload"
)

const (
	defaultUploadRate = 15 * time.Second
	contentionRate    = 5
)

type sampleType struct {
	name  string
	types []pyroscope.ProfileType
}

// sampleTypes lists the accepted O11Y_PROFILING_SAMPLE_TYPES names in the
// order profiles are enabled when none are configured.
var sampleTypes = []sampleType{
	{"cpu", []pyroscope.ProfileType{pyroscope.ProfileCPU}},
	{"alloc_space", []pyroscope.ProfileType{pyroscope.ProfileAllocSpace}},
	{"alloc_objects", []pyroscope.ProfileType{pyroscope.ProfileAllocObjects}},
	{"goroutines", []pyroscope.ProfileType{pyroscope.ProfileGoroutines}},
	{"mutex", []pyroscope.ProfileType{pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration}},
	{"block", []pyroscope.ProfileType{pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration}},
}

// InitProfiler starts continuous profiling when enabled and returns its stop function.
func InitProfiler(cfg config.ProfilingConfig, service config.ObservabilityConfig, environment string) (func(), error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	pc, err := buildConfig(cfg, service, environment)
	if err != nil {
		return nil, err
	}

	restore := enableContention(pc.ProfileTypes)
	profiler, err := pyroscope.Start(*pc)
	if err != nil {
		restore()
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling initialized",
		zap.String("application_name", pc.ApplicationName),
		zap.String("endpoint", pc.ServerAddress),
		zap.Any("tags", pc.Tags),
		zap.Duration("upload_rate", pc.UploadRate),
	)

	return func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			logger.Error("Failed to stop profiler", zap.Error(stopErr))
		}
		restore()
	}, nil
}

// Stage runs fn with samples labelled by submission stage.
func Stage(ctx context.Context, stage string, fn func(context.Context)) {
	pyroscope.TagWrapper(ctx, pyroscope.Labels("stage", stage), fn)
}

func buildConfig(cfg config.ProfilingConfig, service config.ObservabilityConfig, environment string) (*pyroscope.Config, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	types, err := parseSampleTypes(cfg.SampleTypes)
	if err != nil {
		return nil, err
	}

	rate := time.Duration(cfg.UploadIntervalSeconds) * time.Second
	if rate <= 0 {
		rate = defaultUploadRate
	}

	return &pyroscope.Config{
		ApplicationName: applicationName(cfg.AppName, service.ServiceName),
		ServerAddress:   endpoint,
		UploadRate:      rate,
		ProfileTypes:    types,
		Tags:            processTags(service, environment),
		Logger:          zapLogger{logger.Log.Sugar()},
	}, nil
}

func applicationName(appName, serviceName string) string {
	for _, name := range []string{appName, serviceName} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return "signup-api"
}

// processTags identifies this process; empty values are left out.
func processTags(service config.ObservabilityConfig, environment string) map[string]string {
	tags := map[string]string{
		"service_name":    service.ServiceName,
		"namespace":       service.ServiceNamespace,
		"environment":     environment,
		"service_version": service.ServiceVersion,
		"instance":        service.ServiceInstanceID,
	}
	for k, v := range tags {
		if v == "" {
			delete(tags, k)
		}
	}
	return tags
}

func parseSampleTypes(value string) ([]pyroscope.ProfileType, error) {
	var types []pyroscope.ProfileType
	add := func(ts []pyroscope.ProfileType) {
		for _, t := range ts {
			if !slices.Contains(types, t) {
				types = append(types, t)
			}
		}
	}

	for _, raw := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		i := slices.IndexFunc(sampleTypes, func(st sampleType) bool { return st.name == name })
		if i < 0 {
			return nil, fmt.Errorf("unsupported O11Y_PROFILING_SAMPLE_TYPES value: %q", name)
		}
		add(sampleTypes[i].types)
	}

	if len(types) == 0 {
		for _, st := range sampleTypes {
			add(st.types)
		}
	}
	return types, nil
}

// enableContention turns on the runtime sampling that mutex and block
// profiles read from, returning a function that turns it back off.
func enableContention(types []pyroscope.ProfileType) func() {
	var restores []func()
	if slices.Contains(types, pyroscope.ProfileMutexCount) {
		prev := runtime.SetMutexProfileFraction(contentionRate)
		restores = append(restores, func() { runtime.SetMutexProfileFraction(prev) })
	}
	if slices.Contains(types, pyroscope.ProfileBlockCount) {
		runtime.SetBlockProfileRate(contentionRate)
		restores = append(restores, func() { runtime.SetBlockProfileRate(0) })
	}
	return func() {
		for _, r := range restores {
			r()
		}
	}
}

// zapLogger routes profiler diagnostics into the service log.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l zapLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
