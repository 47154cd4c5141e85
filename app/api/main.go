package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/database/mongoclient"
	"github.com/mintybay/goapi/base/database/redisclient"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/base/metrics"
	bValidator "github.com/mintybay/goapi/base/validator"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
	mmiddleware "github.com/mintybay/goapi/middleware"
	"github.com/mintybay/goapi/service/chain"
	"github.com/mintybay/goapi/service/chain/contract"
	"github.com/mintybay/goapi/service/discord"
	"github.com/mintybay/goapi/service/ens"
	"github.com/mintybay/goapi/service/query"
	"github.com/mintybay/goapi/service/redis"
	account_delivery "github.com/mintybay/goapi/stores/account/delivery/http"
	account_repository "github.com/mintybay/goapi/stores/account/repository"
	account_usecase "github.com/mintybay/goapi/stores/account/usecase"
	auth_delivery "github.com/mintybay/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/mintybay/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/mintybay/goapi/stores/auth/usecase"
	hc_delivery "github.com/mintybay/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/mintybay/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/mintybay/goapi/stores/healthcheck/usecase"
	marketplace_delivery "github.com/mintybay/goapi/stores/marketplace/delivery/http"
	marketplace_repository "github.com/mintybay/goapi/stores/marketplace/repository"
	marketplace_usecase "github.com/mintybay/goapi/stores/marketplace/usecase"
	treasury_delivery "github.com/mintybay/goapi/stores/treasury/delivery/http"
	treasury_repository "github.com/mintybay/goapi/stores/treasury/repository"
	treasury_usecase "github.com/mintybay/goapi/stores/treasury/usecase"
)

func init() {
	configFile := pflag.String("config", "infra/configs/config.yaml", "path to the config file")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	// init chain service
	networks := viper.Sub("networks")
	keys := networks.AllSettings()
	rpcs := make(map[int32]string)
	archiveRpcs := make(map[int32]string)
	for k := range keys {
		chainId := networks.GetInt32(fmt.Sprintf("%s.chainId", k))
		rpcs[chainId] = networks.GetString(fmt.Sprintf("%s.rpcUrl", k))
		archiveRpcs[chainId] = networks.GetString(fmt.Sprintf("%s.archiveRpcUrl", k))
	}
	signerKey := viper.GetString("chain.signerKey")
	if env := os.Getenv("CHAIN_SIGNER_KEY"); len(env) > 0 {
		signerKey = env
	}
	chainService, err := chain.NewClient(context, &chain.ClientCfg{
		RpcUrls:        rpcs,
		ArchiveRpcUrls: archiveRpcs,
		SignerKey:      signerKey,
		MaxConcurrent:  viper.GetInt("chain.maxConcurrent"),
	})
	if err != nil {
		context.WithField("err", err).Warn("chainService started with error")
	}
	marketChainId := networks.GetInt32(fmt.Sprintf("%s.chainId", viper.GetString("marketplace.network")))
	erc721Service := contract.NewErc721(chainService)
	custodian := contract.NewCustodian(erc721Service, marketChainId)

	operator, err := chainService.SignerAddress()
	if err != nil {
		context.WithField("err", err).Warn("no custody operator key, listings will fail the approval check")
	}

	// ens on ethereum
	ensService := ens.New(rpcs[1], redisCache)

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	accountRepo := account_repository.New(q, redisCache)
	activityRepo := account_repository.NewActivityHistoryRepo(q)
	marketplaceRepo := marketplace_repository.New()
	balanceRepo := treasury_repository.New(q)

	hc := hc_usecase.New(hcRepo)
	account := account_usecase.New(&account_usecase.AccountUseCaseCfg{
		Repo:         accountRepo,
		ActivityRepo: activityRepo,
		Ens:          ensService,
		SignatureMsg: viper.GetString("auth.signatureMsg"),
	})
	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), account)
	treasury := treasury_usecase.New(&treasury_usecase.TreasuryUseCaseCfg{
		Repo:    balanceRepo,
		Chain:   chainService,
		ChainId: marketChainId,
	})

	var notifier marketplace.SaleNotifier
	if botKey := viper.GetString("discord.botKey"); len(botKey) > 0 {
		notifier, err = discord.NewSaleNotifier(discord.SaleNotifierCfg{
			BotKey:    botKey,
			ChannelId: viper.GetString("discord.channelId"),
			SiteUrl:   viper.GetString("siteUrl"),
			Symbol:    viper.GetString("marketplace.symbol"),
			Account:   account,
		})
		if err != nil {
			context.WithField("err", err).Warn("discord notifier disabled")
		}
	}

	market := marketplace_usecase.New(&marketplace_usecase.MarketplaceUseCaseCfg{
		Repo:                     marketplaceRepo,
		Custodian:                custodian,
		ValueTransfer:            treasury,
		ActivityRepo:             activityRepo,
		Notifier:                 notifier,
		TransactionFeePermillage: viper.GetInt64("marketplace.transactionFeePermillage"),
		FeeReceiver:              domain.Address(viper.GetString("marketplace.feeReceiver")),
		CustodyOperator:          operator,
	})

	adminAddresses := viper.GetStringSlice("admin.addresses")
	auth_middleware := auth_middleware.New(auth, adminAddresses)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	account_delivery.New(e, account, auth_middleware)
	marketplace_delivery.New(e, market, auth_middleware)
	treasury_delivery.New(e, treasury, auth_middleware)

	e.GET("/check", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"address": c.Get("address").(domain.Address),
		})
	}, auth_middleware.Auth())

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
