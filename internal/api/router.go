package api

import (
	"engage-service/internal/repository"
	"engage-service/internal/service"
	"engage-service/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterSocketRouters(r *gin.Engine, hub *socket.Hub) {
	r.GET("/ws", WebsocketSecured(), socket.ServeWsGin(hub))
}

func RegisterPollRouters(r *gin.Engine, pollService service.PollService, registrationRepo repository.RegistrationRepository) {

	handlers := NewPollHandlers(pollService)

	pollGroup := r.Group("/api/v1/poll", Secured())
	{
		pollGroup.POST("", handlers.CreatePoll)
		pollGroup.GET("/event/:event_id", EventMemberMiddleware(registrationRepo), handlers.GetEventPolls)
		pollGroup.POST("/:poll_id/activate", handlers.ActivatePoll)
		pollGroup.POST("/:poll_id/deactivate", handlers.DeactivatePoll)
		pollGroup.POST("/:poll_id/vote", handlers.SubmitVote)
		pollGroup.DELETE("/:poll_id", handlers.DeletePoll)
		pollGroup.GET("/:poll_id/analytics", handlers.GetPollAnalytics)
		pollGroup.GET("/:poll_id/responses", handlers.GetTextResponses)
	}
}

func RegisterForumRouters(r *gin.Engine, forumService service.ForumService, registrationRepo repository.RegistrationRepository) {

	handlers := NewForumHandlers(forumService)

	forumGroup := r.Group("/api/v1/forum", Secured())
	{
		forumGroup.POST("/discussion", handlers.CreateDiscussion)
		forumGroup.GET("/event/:event_id", EventMemberMiddleware(registrationRepo), handlers.GetEventDiscussions)
		forumGroup.PUT("/discussion/:discussion_id", handlers.UpdateDiscussion)
		forumGroup.DELETE("/discussion/:discussion_id", handlers.DeleteDiscussion)

		forumGroup.POST("/discussion/:discussion_id/reply", handlers.CreateReply)
		forumGroup.GET("/discussion/:discussion_id/replies", handlers.GetReplies)
		forumGroup.PUT("/reply/:reply_id", handlers.UpdateReply)
		forumGroup.DELETE("/reply/:reply_id", handlers.DeleteReply)

		forumGroup.POST("/reaction", handlers.ToggleReaction)
	}
}

func RegisterQuestionRouters(r *gin.Engine, questionService service.QuestionService, registrationRepo repository.RegistrationRepository) {

	handlers := NewQuestionHandlers(questionService)

	questionGroup := r.Group("/api/v1/question", Secured())
	{
		questionGroup.POST("", handlers.SubmitQuestion)
		questionGroup.GET("/event/:event_id", EventMemberMiddleware(registrationRepo), handlers.GetEventQuestions)
		questionGroup.POST("/:question_id/vote", handlers.ToggleUpvote)
		questionGroup.POST("/:question_id/answer", handlers.AnswerQuestion)
		questionGroup.POST("/:question_id/star", handlers.StarQuestion)
		questionGroup.DELETE("/:question_id", handlers.DeleteQuestion)
	}
}

func RegisterEventRouters(r *gin.Engine, registrationRepo repository.RegistrationRepository) {

	handlers := NewRegistrationHandlers(registrationRepo)

	eventGroup := r.Group("/api/v1/event", Secured())
	{
		eventGroup.POST("/:event_id/register", handlers.RegisterForEvent)
		eventGroup.GET("/:event_id/registration", handlers.GetMyRegistration)
		eventGroup.GET("/:event_id/attendees/count", EventMemberMiddleware(registrationRepo), handlers.GetAttendeeCount)
	}
}

func RegisterMessageRouters(r *gin.Engine, messageService service.MessageService, presence *service.PresenceService) {

	handlers := NewMessageHandlers(messageService, presence)

	messageGroup := r.Group("/api/v1/message", Secured())
	{
		messageGroup.POST("", handlers.SendMessage)
		messageGroup.GET("/chat/:user_id", handlers.GetChatMessages)
		messageGroup.PUT("/:message_id", handlers.EditMessage)
		messageGroup.DELETE("/:message_id", handlers.DeleteMessage)
		messageGroup.POST("/:message_id/react", handlers.ToggleMessageReaction)
		messageGroup.GET("/online/:user_id", handlers.GetOnlineStatus)
		messageGroup.POST("/device-token", handlers.RegisterDeviceToken)
	}
}

func RegisterSystemRouters(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
