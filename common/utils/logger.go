package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process wide logger. It discards everything until one of the Init
// functions runs, so packages can log from tests without setup.
var Logger = &Loggger{Logger: zap.NewNop()}

type Loggger struct {
	*zap.Logger
	esClient  *elasticsearch.Client
	indexName string
}

func productionConfig() zap.Config {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config
}

func InitLogger(serviceName string) {
	zapLogger, err := productionConfig().Build()
	if err != nil {
		panic(err)
	}
	Logger = &Loggger{Logger: zapLogger.With(zap.String("service", serviceName))}
}

// InitElasticLogger logs to stdout and to the elasticsearch index named by the
// "index" query parameter of elasticUrl.
func InitElasticLogger(elasticUrl, serviceName string) error {
	u, err := url.Parse(elasticUrl)
	if err != nil {
		return fmt.Errorf("parse elastic url: %w", err)
	}

	indexName := u.Query().Get("index")
	if indexName == "" {
		indexName = serviceName + "-logs"
	}
	password, _ := u.User.Password()
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{u.Scheme + "://" + u.Host},
		Username:  u.User.Username(),
		Password:  password,
	})
	if err != nil {
		return fmt.Errorf("create elastic client: %w", err)
	}

	config := productionConfig()
	encoder := zapcore.NewJSONEncoder(config.EncoderConfig)
	esWriter := &ElasticWriter{client: esClient, indexName: indexName}
	consoleCore := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), config.Level)
	elasticCore := zapcore.NewCore(encoder, zapcore.AddSync(esWriter), config.Level)

	zapLogger := zap.New(zapcore.NewTee(consoleCore, elasticCore)).With(zap.String("service", serviceName))
	Logger = &Loggger{Logger: zapLogger, esClient: esClient, indexName: indexName}
	return nil
}

// ElasticWriter implements zapcore.WriteSyncer by indexing every entry as a document.
type ElasticWriter struct {
	client    *elasticsearch.Client
	indexName string
}

func (ew *ElasticWriter) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := ew.client.Index(
		ew.indexName,
		bytes.NewReader(append([]byte(nil), p...)),
		ew.client.Index.WithContext(ctx),
		ew.client.Index.WithDocumentID(strconv.FormatInt(time.Now().UnixNano(), 10)),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("elastic index: %s", res.Status())
	}
	return len(p), nil
}

func (ew *ElasticWriter) Sync() error {
	return nil
}
