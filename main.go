package main

import (
	"context"
	"log"

	"tableside/config"
	httpapi "tableside/internal/api/http"
	"tableside/internal/service"
	"tableside/internal/storage"
)

func main() {
	db := config.MustInitPostgres()
	defer db.Close()

	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	rdb := config.MustInitRedis()
	defer rdb.Close()
	rollups := storage.NewRedisRollups(rdb, config.StatsCacheTTL())

	writer := config.NewKafkaWriter(config.OrderEventsTopic)
	defer writer.Close()
	publisher := storage.NewKafkaPublisher(writer)

	reader := config.NewKafkaReader(config.OrderEventsTopic, "tableside-stats")
	defer reader.Close()

	qrGen := service.DefaultQRGenerator{BaseURL: config.BaseURL()}

	cartSvc := service.NewCartService(repo, repo, repo)
	orderSvc := service.NewOrderService(repo, repo, repo, repo, qrGen, publisher)
	statsSvc := service.NewStatsService(repo, rollups)
	restSvc := service.NewRestaurantService(repo)
	productSvc := service.NewProductService(repo)

	consumer := service.NewConsumer(reader, rollups)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.Start(ctx)

	handler := httpapi.NewHandler(repo, restSvc, productSvc, cartSvc, orderSvc, statsSvc)
	httpapi.StartServer(config.HTTPAddr(), httpapi.NewRouter(handler))
}
