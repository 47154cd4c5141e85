package discord

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
	"github.com/mintybay/goapi/domain/marketplace"
)

const nativeTokenDecimals = 18

type SaleNotifierCfg struct {
	BotKey    string
	ChannelId string
	// SiteUrl is the asset page prefix of the notification link
	SiteUrl string
	Symbol  string
	Account account.Usecase
}

type saleNotifier struct {
	cfg     SaleNotifierCfg
	discord *discordgo.Session
}

// NewSaleNotifier announces settled sales in a discord channel.
func NewSaleNotifier(cfg SaleNotifierCfg) (marketplace.SaleNotifier, error) {
	discord, err := discordgo.New(fmt.Sprintf("Bot %s", cfg.BotKey))
	if err != nil {
		return nil, err
	}
	return &saleNotifier{cfg: cfg, discord: discord}, nil
}

func (n *saleNotifier) NotifySold(c ctx.Ctx, item *marketplace.MarketItem, salePrice *big.Int) error {
	price, _ := decimal.NewFromBigInt(salePrice, -nativeTokenDecimals).Float64()

	msg := &discordgo.MessageEmbed{
		Title:       "Item sold!",
		Description: fmt.Sprintf("%s/asset/%s/%s", n.cfg.SiteUrl, item.AssetContract, item.TokenId),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Seller", Value: fmt.Sprintf("%s (%s)", item.Seller, n.alias(c, item.Seller))},
			{Name: "Buyer", Value: fmt.Sprintf("%s (%s)", item.Owner, n.alias(c, item.Owner))},
			{Name: "Price", Value: fmt.Sprintf("%s %s", strconv.FormatFloat(price, 'f', -1, 64), n.cfg.Symbol)},
		},
	}

	if _, err := n.discord.ChannelMessageSendEmbed(n.cfg.ChannelId, msg); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item.Id,
		}).Error("discord.ChannelMessageSendEmbed failed")
		return err
	}
	return nil
}

func (n *saleNotifier) alias(c ctx.Ctx, address domain.Address) string {
	info, err := n.cfg.Account.Get(c, address)
	if err != nil || len(info.Name) == 0 {
		return "-"
	}
	return info.Name
}
