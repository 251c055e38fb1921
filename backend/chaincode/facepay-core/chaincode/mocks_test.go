package chaincode

import (
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// mockStub backs the chaincode with a plain map. Only the methods the
// contracts use are implemented; the embedded interface satisfies the rest.
type mockStub struct {
	shim.ChaincodeStubInterface
	state        map[string][]byte
	eventName    string
	eventPayload []byte
	now          int64
}

func newMockStub() *mockStub {
	return &mockStub{state: map[string][]byte{}, now: 1_700_000_000}
}

func (s *mockStub) GetState(key string) ([]byte, error) {
	return s.state[key], nil
}

func (s *mockStub) PutState(key string, value []byte) error {
	s.state[key] = value
	return nil
}

func (s *mockStub) DelState(key string) error {
	delete(s.state, key)
	return nil
}

func (s *mockStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key := string(rune(0)) + objectType + string(rune(0))
	for _, attr := range attributes {
		key += attr + string(rune(0))
	}
	return key, nil
}

func (s *mockStub) GetTxTimestamp() (*timestamp.Timestamp, error) {
	return &timestamp.Timestamp{Seconds: s.now}, nil
}

func (s *mockStub) SetEvent(name string, payload []byte) error {
	s.eventName = name
	s.eventPayload = payload
	return nil
}

// snapshot copies the world state so tests can assert a failed call mutated
// nothing.
func (s *mockStub) snapshot() map[string]string {
	out := make(map[string]string, len(s.state))
	for k, v := range s.state {
		out[k] = string(v)
	}
	return out
}

type mockClientIdentity struct {
	cid.ClientIdentity
	id string
}

func (m *mockClientIdentity) GetID() (string, error) {
	return m.id, nil
}

type mockContext struct {
	contractapi.TransactionContextInterface
	stub     *mockStub
	identity *mockClientIdentity
}

func (c *mockContext) GetStub() shim.ChaincodeStubInterface {
	return c.stub
}

func (c *mockContext) GetClientIdentity() cid.ClientIdentity {
	return c.identity
}

// world is one shared state with per-caller contexts.
type world struct {
	stub *mockStub
}

func newWorld() *world {
	return &world{stub: newMockStub()}
}

func (w *world) as(account string) *mockContext {
	return &mockContext{stub: w.stub, identity: &mockClientIdentity{id: account}}
}
