package services

import (
	"context"
	"fmt"
	"math/big"

	"cryptopath-gateway/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// EthBalanceSource reads native balances over JSON-RPC
type EthBalanceSource struct {
	client *ethclient.Client
}

// NewEthBalanceSource dials the configured RPC endpoint
func NewEthBalanceSource(rpcEndpoint string) (*EthBalanceSource, error) {
	client, err := ethclient.Dial(rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial rpc endpoint: %w", err)
	}
	return &EthBalanceSource{client: client}, nil
}

// BalanceOf implements BalanceSource. The balance is returned in ether as a
// decimal string.
func (s *EthBalanceSource) BalanceOf(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", models.NewAppError(models.ErrorCodeInvalidAddress, "invalid wallet address")
	}

	wei, err := s.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return "", fmt.Errorf("fetch balance: %w", err)
	}

	return WeiToEther(wei), nil
}

// Close releases the underlying RPC connection
func (s *EthBalanceSource) Close() {
	s.client.Close()
}

// WeiToEther converts a wei amount to an ether decimal string
func WeiToEther(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).String()
}
