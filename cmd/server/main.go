package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engage-service/config"
	"engage-service/internal/api"
	"engage-service/internal/repository"
	"engage-service/internal/service"
	"engage-service/internal/socket"
	"engage-service/pkg/consul"
	applog "engage-service/pkg/zap"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log := applog.NewLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoClient, err := repository.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	log.Infof("Connected to MongoDB database %q", cfg.Mongo.Database)

	pollRepo := repository.NewPollRepository(db.Collection(repository.CollectionPolls))
	responseRepo := repository.NewPollResponseRepository(db.Collection(repository.CollectionPollResponses))
	discussionRepo := repository.NewDiscussionRepository(
		db.Collection(repository.CollectionDiscussions),
		db.Collection(repository.CollectionReplies))
	reactionRepo := repository.NewReactionRepository(db.Collection(repository.CollectionReactions))
	questionRepo := repository.NewQuestionRepository(
		db.Collection(repository.CollectionQuestions),
		db.Collection(repository.CollectionQuestionVotes))
	messageRepo := repository.NewMessageRepository(
		db.Collection(repository.CollectionMessages),
		db.Collection(repository.CollectionMessageReactions))
	registrationRepo := repository.NewRegistrationRepository(db.Collection(repository.CollectionRegistrations))

	presence := service.NewPresenceService(cfg.Redis.URL, log)
	notifier := service.NewNotifier(ctx, cfg.Firebase.CredentialsFile, presence, log)

	hub := socket.NewHub(presence)
	hub.SetEventAuthorizer(func(userID, eventID string) bool {
		oid, err := primitive.ObjectIDFromHex(eventID)
		if err != nil {
			return false
		}
		checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer checkCancel()
		ok, err := registrationRepo.IsUserInEvent(checkCtx, userID, oid)
		if err != nil {
			log.Warnf("Event membership check failed for %s: %v", userID, err)
			return false
		}
		return ok
	})
	go hub.Run()

	pollService := service.NewPollService(pollRepo, responseRepo, hub)
	forumService := service.NewForumService(discussionRepo, reactionRepo, hub)
	questionService := service.NewQuestionService(questionRepo, hub)
	messageService := service.NewMessageService(messageRepo, hub, presence, notifier)

	r := gin.Default()

	api.RegisterSocketRouters(r, hub)
	api.RegisterPollRouters(r, pollService, registrationRepo)
	api.RegisterForumRouters(r, forumService, registrationRepo)
	api.RegisterQuestionRouters(r, questionService, registrationRepo)
	api.RegisterEventRouters(r, registrationRepo)
	api.RegisterMessageRouters(r, messageService, presence)
	api.RegisterSystemRouters(r)

	var consulConn consul.Client
	if cfg.Consul.Host != "" {
		consulConn = consul.NewConsulConn(log, cfg)
		consulConn.Connect()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if consulConn != nil {
		consulConn.Deregister()
	}

	hub.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Errorf("MongoDB disconnect error: %v", err)
	}

	log.Info("Server stopped")
}
