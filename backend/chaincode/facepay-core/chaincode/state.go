package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// callerID returns the invoking client's identity string. It doubles as the
// account address: the account that signs a transaction is the account the
// chaincode acts on behalf of.
func callerID(ctx contractapi.TransactionContextInterface) (string, error) {
	id, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity: %v", err)
	}
	return id, nil
}

// txSeconds returns the transaction timestamp in Unix seconds. The tx
// timestamp is part of the proposal, so every endorser sees the same value.
func txSeconds(ctx contractapi.TransactionContextInterface) (int64, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return 0, fmt.Errorf("failed to get tx timestamp: %v", err)
	}
	return ts.GetSeconds(), nil
}

func registryKey(stub shim.ChaincodeStubInterface, admin string) (string, error) {
	return stub.CreateCompositeKey(registryKeyType, []string{admin})
}

func fingerprintKey(stub shim.ChaincodeStubInterface, admin, fingerprint string) (string, error) {
	return stub.CreateCompositeKey(fingerprintKeyType, []string{admin, fingerprint})
}

func identityKey(stub shim.ChaincodeStubInterface, admin, owner string) (string, error) {
	return stub.CreateCompositeKey(identityKeyType, []string{admin, owner})
}

func ledgerKey(stub shim.ChaincodeStubInterface, admin string) (string, error) {
	return stub.CreateCompositeKey(ledgerKeyType, []string{admin})
}

func balanceKey(stub shim.ChaincodeStubInterface, admin, account string) (string, error) {
	return stub.CreateCompositeKey(balanceKeyType, []string{admin, account})
}

func receiptKey(stub shim.ChaincodeStubInterface, admin, sender string, paymentID uint64) (string, error) {
	// Zero-padded so range queries over a sender's receipts come back in
	// payment order.
	return stub.CreateCompositeKey(receiptKeyType, []string{admin, sender, fmt.Sprintf("%020d", paymentID)})
}

// getJSON reads key into out. Returns false without error when the key is
// absent.
func getJSON(stub shim.ChaincodeStubInterface, key string, out interface{}) (bool, error) {
	data, err := stub.GetState(key)
	if err != nil {
		return false, fmt.Errorf("failed to read state %s: %v", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode state %s: %v", key, err)
	}
	return true, nil
}

func putJSON(stub shim.ChaincodeStubInterface, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %v", key, err)
	}
	if err := stub.PutState(key, data); err != nil {
		return fmt.Errorf("failed to write state %s: %v", key, err)
	}
	return nil
}

func loadRegistry(stub shim.ChaincodeStubInterface, admin string) (*RegistryIndex, error) {
	key, err := registryKey(stub, admin)
	if err != nil {
		return nil, err
	}
	var idx RegistryIndex
	found, err := getJSON(stub, key, &idx)
	if err != nil || !found {
		return nil, err
	}
	return &idx, nil
}

func loadIdentity(stub shim.ChaincodeStubInterface, admin, owner string) (*Identity, error) {
	key, err := identityKey(stub, admin, owner)
	if err != nil {
		return nil, err
	}
	var identity Identity
	found, err := getJSON(stub, key, &identity)
	if err != nil || !found {
		return nil, err
	}
	return &identity, nil
}

func saveIdentity(stub shim.ChaincodeStubInterface, admin string, identity *Identity) error {
	key, err := identityKey(stub, admin, identity.OwnerAccount)
	if err != nil {
		return err
	}
	return putJSON(stub, key, identity)
}

// resolveFingerprint returns the owner account indexed under fingerprint, or
// "" when the registry or the fingerprint is absent.
func resolveFingerprint(stub shim.ChaincodeStubInterface, admin, fingerprint string) (string, error) {
	key, err := fingerprintKey(stub, admin, fingerprint)
	if err != nil {
		return "", err
	}
	data, err := stub.GetState(key)
	if err != nil {
		return "", fmt.Errorf("failed to read fingerprint index: %v", err)
	}
	return string(data), nil
}

func loadLedger(stub shim.ChaincodeStubInterface, admin string) (*LedgerConfig, error) {
	key, err := ledgerKey(stub, admin)
	if err != nil {
		return nil, err
	}
	var cfg LedgerConfig
	found, err := getJSON(stub, key, &cfg)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

func saveLedger(stub shim.ChaincodeStubInterface, cfg *LedgerConfig) error {
	key, err := ledgerKey(stub, cfg.Admin)
	if err != nil {
		return err
	}
	return putJSON(stub, key, cfg)
}

func loadBalance(stub shim.ChaincodeStubInterface, admin, account string) (int64, error) {
	key, err := balanceKey(stub, admin, account)
	if err != nil {
		return 0, err
	}
	var balance int64
	found, err := getJSON(stub, key, &balance)
	if err != nil || !found {
		return 0, err
	}
	return balance, nil
}

func saveBalance(stub shim.ChaincodeStubInterface, admin, account string, balance int64) error {
	key, err := balanceKey(stub, admin, account)
	if err != nil {
		return err
	}
	return putJSON(stub, key, balance)
}

func emitJSON(stub shim.ChaincodeStubInterface, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %v", name, err)
	}
	return stub.SetEvent(name, data)
}
