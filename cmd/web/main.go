package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/mac2503/e-tiet2/internal/blob"
	"github.com/mac2503/e-tiet2/internal/catalog"
	"github.com/mac2503/e-tiet2/internal/config"
	"github.com/mac2503/e-tiet2/internal/identity"
	"github.com/mac2503/e-tiet2/internal/orders"
	"github.com/mac2503/e-tiet2/internal/payment"
	"github.com/mac2503/e-tiet2/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type application struct {
	infoLog  *log.Logger
	errorLog *log.Logger
	session  *scs.SessionManager
	identity *identity.Service
	catalog  *catalog.Service
	orders   *orders.Service
	blobs    *blob.Store
}

func main() {
	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		infoLog.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		errorLog.Fatal(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		errorLog.Fatal(err)
	}
	defer client.Disconnect(context.Background())
	infoLog.Println("Connected to database!")

	db := client.Database(cfg.MongoDB)

	// Email uniqueness is backed by the store itself, not just the
	// check-then-insert in the repository.
	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		errorLog.Fatal(err)
	}

	userRepo := &repository.UserRepository{Collection: db.Collection("users")}
	productRepo := &repository.ProductRepository{Collection: db.Collection("products")}
	orderRepo := &repository.OrderRepository{Collection: db.Collection("orders")}

	blobs, err := blob.NewStore(ctx, cfg)
	if err != nil {
		errorLog.Fatal(err)
	}

	session := scs.New()
	session.Lifetime = cfg.SessionLifetime
	session.Cookie.HttpOnly = true

	identitySvc := identity.NewService(userRepo)
	catalogSvc := catalog.NewService(productRepo, blobs, errorLog)
	ordersSvc := orders.NewService(orderRepo, catalogSvc, identitySvc, payment.NewClient(cfg), errorLog)

	app := &application{
		infoLog:  infoLog,
		errorLog: errorLog,
		session:  session,
		identity: identitySvc,
		catalog:  catalogSvc,
		orders:   ordersSvc,
		blobs:    blobs,
	}

	srv := &http.Server{
		Addr:     cfg.Addr,
		ErrorLog: errorLog,
		Handler:  app.routes(),
	}

	infoLog.Printf("Starting server on %s", cfg.Addr)
	err = srv.ListenAndServe()
	errorLog.Fatal(err)
}
