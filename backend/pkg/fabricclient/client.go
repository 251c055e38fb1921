package fabricclient

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
)

// defaultIdentity is the service's own wallet label, used for admin
// submissions, reads and event listening.
const defaultIdentity = "appUser"

// Client wraps Fabric gateway connections to the facepay-core chaincode.
// Contract methods are addressed by qualified name, e.g. "registry:Register".
// The chaincode binds registered identities and payment senders to the
// signing client ID, so user-facing submissions must be signed by the user's
// own wallet identity: SubmitAs opens (and caches) one gateway session per
// wallet label.
type Client struct {
	configPath string
	channel    string
	chaincode  string
	wallet     *gateway.Wallet

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	gw       *gateway.Gateway
	contract *gateway.Contract
}

func NewClient(configPath, channelName, contractName, mspID, certPath, keyPath string) (*Client, error) {
	wallet, err := gateway.NewFileSystemWallet("wallet")
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %v", err)
	}

	if !wallet.Exists(defaultIdentity) {
		if err := populateWallet(wallet, mspID, certPath, keyPath); err != nil {
			return nil, fmt.Errorf("failed to populate wallet: %v", err)
		}
	}

	c := &Client{
		configPath: configPath,
		channel:    channelName,
		chaincode:  contractName,
		wallet:     wallet,
		sessions:   map[string]*session{},
	}
	if _, err := c.session(defaultIdentity); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) session(label string) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[label]; ok {
		return s, nil
	}
	if !c.wallet.Exists(label) {
		return nil, fmt.Errorf("identity %s is not enrolled in the wallet", label)
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromFile(filepath.Clean(c.configPath))),
		gateway.WithIdentity(c.wallet, label),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway as %s: %v", label, err)
	}
	network, err := gw.GetNetwork(c.channel)
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("failed to get network: %v", err)
	}

	s := &session{gw: gw, contract: network.GetContract(c.chaincode)}
	c.sessions[label] = s
	return s, nil
}

// SubmitTransaction submits signed by the service's own identity.
func (c *Client) SubmitTransaction(name string, args ...string) ([]byte, error) {
	return c.SubmitAs(defaultIdentity, name, args...)
}

// SubmitAs submits signed by the wallet identity enrolled under label.
func (c *Client) SubmitAs(label, name string, args ...string) ([]byte, error) {
	s, err := c.session(label)
	if err != nil {
		return nil, err
	}
	return s.contract.SubmitTransaction(name, args...)
}

func (c *Client) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	s, err := c.session(defaultIdentity)
	if err != nil {
		return nil, err
	}
	return s.contract.EvaluateTransaction(name, args...)
}

// ListenEvents registers for a chaincode event and returns the notification
// channel plus a cancel func that tears the registration down.
func (c *Client) ListenEvents(eventName string) (<-chan *fab.CCEvent, func(), error) {
	s, err := c.session(defaultIdentity)
	if err != nil {
		return nil, nil, err
	}
	reg, notifier, err := s.contract.RegisterEvent(eventName)
	if err != nil {
		return nil, nil, err
	}
	return notifier, func() { s.contract.Unregister(reg) }, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		s.gw.Close()
	}
	c.sessions = map[string]*session{}
}

func populateWallet(wallet *gateway.Wallet, mspID, certPath, keyPath string) error {
	cert, err := os.ReadFile(filepath.Clean(certPath))
	if err != nil {
		return err
	}

	key, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return err
	}

	identity := gateway.NewX509Identity(mspID, string(cert), string(key))

	return wallet.Put(defaultIdentity, identity)
}
