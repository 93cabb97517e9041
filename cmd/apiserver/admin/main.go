package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"lapor-chat/internal/config"
	appKafka "lapor-chat/internal/kafka"
	"lapor-chat/internal/logging"
	"lapor-chat/internal/models"
	"lapor-chat/internal/services"
	"lapor-chat/internal/storage"
)

const timeLayout = "2006-01-02 15:04:05"

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  ./admin promote <userID>         - let a user receive new-message notifications")
	fmt.Println("  ./admin demote <userID>          - remove the admin role")
	fmt.Println("  ./admin list-admins              - list every admin")
	fmt.Println("  ./admin show-message <messageID> - show one message")
	fmt.Println("  ./admin delete-message <messageID> - delete a message as admin")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := storage.InitDB(cfg.Database, logging.Nop())
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	userService := services.NewUserService(storage.NewGormUserRepository(db))
	messageService := services.NewMessageService(storage.NewGormMessageRepository(db), nil, cfg.Chat, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	arg := func() string {
		if len(os.Args) < 3 {
			color.Red.Printf("%s needs an id\n", os.Args[1])
			os.Exit(1)
		}
		return os.Args[2]
	}

	switch os.Args[1] {
	case "promote":
		id := arg()
		if err := userService.Promote(ctx, id); err != nil {
			log.Fatalf("promote %s: %v", id, err)
		}
		color.Green.Printf("user %s is now an admin\n", id)

	case "demote":
		id := arg()
		if err := userService.Demote(ctx, id); err != nil {
			log.Fatalf("demote %s: %v", id, err)
		}
		color.Green.Printf("user %s is no longer an admin\n", id)

	case "list-admins":
		listAdmins(ctx, userService)

	case "show-message":
		showMessage(ctx, messageService, arg())

	case "delete-message":
		id := arg()
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka, logging.Nop())
		if err != nil {
			log.Fatalf("create kafka producer: %v", err)
		}
		defer producer.Close()
		// publishing lets every chat server drop the message from its feed
		messageService = services.NewMessageService(storage.NewGormMessageRepository(db), appKafka.NewEventPublisher(producer, cfg.Kafka), cfg.Chat, logging.Nop())

		actor := services.Actor{UserID: "admin-cli", Role: models.RoleAdmin}
		if err := messageService.Delete(ctx, actor, id); err != nil {
			log.Fatalf("delete message %s: %v", id, err)
		}
		color.Green.Printf("message %s deleted\n", id)

	default:
		color.Red.Printf("unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func listAdmins(ctx context.Context, users services.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("list admins: %v", err)
	}

	fmt.Printf("%d admin(s):\n", len(admins))
	fmt.Println("--------------------------------------")
	for i, u := range admins {
		email := "(anonymous)"
		if u.Email != nil {
			email = *u.Email
		}
		fmt.Printf("#%d ID: %s, email: %s, since: %s\n", i+1, u.ID, email, u.CreatedAt.Format(timeLayout))
	}
}

func showMessage(ctx context.Context, messages services.MessageService, id string) {
	msg, err := messages.GetByID(ctx, id)
	if err != nil {
		log.Fatalf("get message %s: %v", id, err)
	}

	fmt.Printf("message %s:\n", msg.ID)
	fmt.Println("--------------------------------------")
	fmt.Printf("author: %s\n", msg.UserID)
	if msg.CreatedAt != nil {
		fmt.Printf("created: %s\n", msg.CreatedAt.Format(timeLayout))
	}
	if msg.Text != "" {
		fmt.Printf("text: %s\n", msg.Text)
	}
	if msg.Type != "" {
		fmt.Printf("type: %s\n", msg.Type)
	}
	if msg.MediaURL != "" {
		fmt.Printf("media: %s\n", msg.MediaURL)
	}
	if msg.Location != nil {
		fmt.Printf("location: %f,%f\n", msg.Location.Latitude, msg.Location.Longitude)
	}
}
