package application

import (
	"net/http"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/veedubyou/vocal-extractor-be/src/server/google_id"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/gateway"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/usecase"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/gateway"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/storage"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/usecase"
	"github.com/veedubyou/vocal-extractor-be/src/shared/config"
	"github.com/veedubyou/vocal-extractor-be/src/shared/filestore"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/dynamo"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/executor"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/workpool"
	"github.com/veedubyou/vocal-extractor-be/src/shared/media"
	"github.com/veedubyou/vocal-extractor-be/src/shared/separation"
	"github.com/veedubyou/vocal-extractor-be/src/shared/storagepath"
	"google.golang.org/api/option"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

// media and inference work is CPU bound, so the pool stays small
const workerCount = 4

type App struct {
	echo *echo.Echo
	port string
}

type Config struct {
	FFmpegBinPath        string
	DemucsBinPath        string
	DemucsWorkingDirPath string
	TempDirPath          string
	OutputDirPath        string

	// DynamoConfig selects the durable account store. nil keeps
	// accounts in process memory
	DynamoConfig config.Dynamo

	// RabbitMQURL enables job lifecycle events. empty disables them
	RabbitMQURL       string
	RabbitMQQueueName string

	// CloudStorage enables mirroring finished stems. nil disables it
	CloudStorage   config.CloudStorage
	GoogleCloudKey string

	CORSAllowedOrigins []string
	UserValidator      google_id.Validator
	Port               string
	Log                bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	userGateway := makeUserGateway(config)
	jobGateway := makeJobGateway(config)

	// health check
	handleRoute(GET, "/", jobGateway.Root)
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// auth routes
	handleRoute(POST, "/register", userGateway.Register)
	handleRoute(POST, "/login", userGateway.Login)
	handleRoute(POST, "/forgot-password", userGateway.ForgotPassword)
	handleRoute(POST, "/google-login", userGateway.GoogleLogin)

	// separation routes
	handleRoute(POST, "/process", jobGateway.Process)
	handleRoute(GET, "/download", jobGateway.Download)

	return App{
		echo: e,
		port: config.Port,
	}
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeUserGateway(config Config) usergateway.Gateway {
	accountStore := makeAccountStore(config)
	userUsecase := userusecase.NewUsecase(accountStore, config.UserValidator)
	return usergateway.NewGateway(userUsecase)
}

func makeAccountStore(config Config) userstorage.Store {
	if config.DynamoConfig == nil {
		return userstorage.NewMemoryStore()
	}

	return userstorage.NewDB(makeDynamoDB(config.DynamoConfig))
}

func makeJobGateway(config Config) jobgateway.Gateway {
	commandExecutor := executor.BinaryFileExecutor{}

	jobUsecase := jobusecase.NewUsecase(
		makeModelHost(config, commandExecutor),
		media.NewFFmpeg(config.FFmpegBinPath, commandExecutor),
		workpool.NewPool(workerCount),
		makePublisher(config),
		makeResultStore(config),
		makePathGenerator(config),
		config.TempDirPath,
		config.OutputDirPath,
	)

	return jobgateway.NewGateway(jobUsecase)
}

func makeModelHost(config Config, commandExecutor executor.Executor) separation.Host {
	model, err := separation.LoadDemucsModel(config.DemucsBinPath, config.DemucsWorkingDirPath, commandExecutor)
	if err != nil {
		// serve everything else and reject separations instead of
		// refusing to boot
		log.WithError(err).Error("Failed to load the separation model, starting degraded")
		return separation.NewDegradedHost(err)
	}

	return separation.NewHost(model)
}

func makePublisher(config Config) rabbitmq.Publisher {
	if config.RabbitMQURL == "" {
		return rabbitmq.NoopPublisher{}
	}

	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeResultStore(config Config) filestore.FileStore {
	if config.CloudStorage == nil {
		return nil
	}

	opts := []option.ClientOption{}
	if config.GoogleCloudKey != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.GoogleCloudKey)))
	}

	fileStore, err := filestore.NewGoogleFileStore(config.CloudStorage.GetStorageHost(), opts...)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create Google file store"))
	}

	return fileStore
}

func makePathGenerator(config Config) storagepath.Generator {
	if config.CloudStorage == nil {
		return storagepath.Generator{}
	}

	return storagepath.Generator{
		Host:   config.CloudStorage.GetStorageHost(),
		Bucket: config.CloudStorage.GetBucket(),
	}
}

func makeDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	db := dynamo.New(dbSession, dbConfig)
	return dynamolib.NewDynamoDBWrapper(db)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
