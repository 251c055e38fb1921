package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/passionate-dev7/facepay/backend/chaincode/facepay-core/chaincode"
)

func main() {
	registry := &chaincode.RegistryContract{}
	registry.Name = "registry"
	ledger := &chaincode.LedgerContract{}
	ledger.Name = "ledger"
	facade := &chaincode.FacadeContract{}
	facade.Name = "facepay"

	cc, err := contractapi.NewChaincode(registry, ledger, facade)
	if err != nil {
		log.Panicf("Error creating FacePay chaincode: %v", err)
	}
	cc.DefaultContract = facade.GetName()

	if err := cc.Start(); err != nil {
		log.Panicf("Error starting FacePay chaincode: %v", err)
	}
}
