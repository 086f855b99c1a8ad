package services_test

import (
	"github.com/formsnap/signup-api/config"
	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig(policy string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AppEnv: "development",
		},
		Submission: config.SubmissionConfig{
			UploadFailurePolicy: policy,
		},
	}
}

func pngAvatar(name string, size int) *form.File {
	return form.FileFromBytes(name, "image/png", make([]byte, size))
}

func validInput() *form.Input {
	return &form.Input{
		Name:     "joao silva",
		Email:    "joao@hotmail.com",
		Password: "senha1",
		Techs:    form.NewTechList("x", "y", "z").Entries(),
		Avatar:   []*form.File{pngAvatar("avatar.png", 1024*1024)},
	}
}
