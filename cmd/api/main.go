// @title           Notes QA API
// @version         1.0
// @description     This API answers questions over uploaded notes with streamed answers
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/data/redisStore"
	"github.com/akolanti/NotesRAG/internal/data/store"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/handlers"
	"github.com/akolanti/NotesRAG/internal/rag/classifier"
	"github.com/akolanti/NotesRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/NotesRAG/internal/rag/llm"
	"github.com/akolanti/NotesRAG/internal/rag/llm/gemini"
	"github.com/akolanti/NotesRAG/internal/rag/llm/openaiLLM"
	"github.com/akolanti/NotesRAG/internal/rag/retriever"
	"github.com/akolanti/NotesRAG/internal/rag/session"
	"github.com/akolanti/NotesRAG/internal/rag/streamer"
	"github.com/akolanti/NotesRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/NotesRAG/internal/rag/vectorizer"
	"github.com/akolanti/NotesRAG/internal/server"
	"github.com/akolanti/NotesRAG/internal/task"
	"github.com/akolanti/NotesRAG/internal/worker"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

var (
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered task channel
	taskChannel := make(chan taskModel.VectorizeTask, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//document store - redis with an in-memory fallback
	var documentStore taskModel.DocumentStore
	redisClient, err := redisStore.NewStore(serviceContext, config.RedisDocumentStore)
	if err != nil {
		logger.Error("Redis store is offline, using in-memory document store")
		documentStore = store.InitInMemoryDocumentStore()
	} else {
		documentStore = store.NewRedisDocumentStore(redisClient)
	}

	vectorDB, err := qdrantDB.NewClient(serviceContext)
	if err != nil {
		logger.Error("Vector index is unavailable. Shutting down.", "error", err)
		return
	}

	embeddingService, err := googleEmbedding.NewClient(serviceContext, config.GoogleEmbeddingModel, config.GoogleAPIKey)
	if err != nil {
		logger.Error("Embedding service failed to initialize. Shutting down.", "error", err)
		return
	}

	var llmProvider llm.Provider
	if config.LLMProvider == "openai" {
		llmProvider = openaiLLM.NewClient(config.OpenAIAPIKey, config.OpenAIModelName)
	} else {
		llmProvider, err = gemini.NewClient(serviceContext, config.GoogleAPIKey, config.GeminiModelName)
		if err != nil {
			logger.Error("LLM provider failed to initialize. Shutting down.", "error", err)
			return
		}
	}

	//question pipeline
	sessionController := session.NewController(
		classifier.New(llmProvider),
		retriever.New(embeddingService, vectorDB),
		streamer.New(llmProvider),
		documentStore,
	)

	//vectorization pipeline
	taskService := task.InitTaskService(task.ServiceConfig{
		TaskChannel:       taskChannel,
		DispatcherChannel: dispatcherChannel,
		Documents:         documentStore,
	})
	vectorizerService := vectorizer.NewService(embeddingService, vectorDB, documentStore, llmProvider)
	worker.InitWorkerPool(taskService, vectorizerService, stopWorkerChannel, &workerWaitGroup)

	handler := handlers.NewHandler(sessionController, taskService, documentStore)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, handler)

	<-stopExecution
	logger.Info("Server stopped")
}
