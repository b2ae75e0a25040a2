package main

import (
	"strings"

	"github.com/veedubyou/vocal-extractor-be/src/server/application"
	"github.com/veedubyou/vocal-extractor-be/src/server/google_id"
	"github.com/veedubyou/vocal-extractor-be/src/shared/config"
	"github.com/veedubyou/vocal-extractor-be/src/shared/config/dev"
	"github.com/veedubyou/vocal-extractor-be/src/shared/config/envvar"
	"github.com/veedubyou/vocal-extractor-be/src/shared/config/prod"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/env"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet("ALLOWED_FE_ORIGINS")
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			FFmpegBinPath:        envvar.MustGet(envvar.FFMPEG_BIN_PATH),
			DemucsBinPath:        envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			DemucsWorkingDirPath: envvar.MustGet(envvar.DEMUCS_WORKING_DIR_PATH),
			TempDirPath:          config.TempDirPath,
			OutputDirPath:        config.OutputDirPath,
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			RabbitMQURL:       envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName: envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			CloudStorage: config.ProdCloudStorage{
				StorageHost: prod.GoogleStorageHost,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			GoogleCloudKey:     envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
			CORSAllowedOrigins: allowedOrigins,
			UserValidator:      makeValidator(),
			Port:               ":5000",
			Log:                true,
		}

	case env.Development:
		appConfig = application.Config{
			FFmpegBinPath:        config.FFmpegPath(),
			DemucsBinPath:        config.DemucsPath(),
			DemucsWorkingDirPath: config.DemucsWorkingDirPath,
			TempDirPath:          config.TempDirPath,
			OutputDirPath:        config.OutputDirPath,
			RabbitMQURL:          dev.RabbitMQHost,
			RabbitMQQueueName:    dev.RabbitMQQueueName,
			CORSAllowedOrigins:   []string{"*"},
			UserValidator:        makeValidator(),
			Port:                 ":5000",
			Log:                  true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}

// makeValidator verifies tokens properly when a client ID is
// configured, and otherwise falls back to asking Google's tokeninfo
// endpoint, which doesn't need one.
func makeValidator() google_id.Validator {
	clientID := envvar.Get(envvar.GOOGLE_CLIENT_ID)
	if clientID != "" {
		return google_id.GoogleValidator{ClientID: clientID}
	}

	return google_id.NewTokenInfoValidator()
}
