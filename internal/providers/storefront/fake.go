package storefront

import (
	"context"
	"strconv"
	"sync"
)

// Fake is an in-memory storefront used by tests and local daemon runs.
// Outcomes are scripted per product id.
type Fake struct {
	mu        sync.Mutex
	products  map[string]Product
	buyErrs   map[string]error
	evidence  []byte
	finalized map[string]bool
	restored  []Transaction
	failed    []Transaction
	updates   chan Transaction
	nextTxID  int
}

func NewFake() *Fake {
	return &Fake{
		products:  make(map[string]Product),
		buyErrs:   make(map[string]error),
		finalized: make(map[string]bool),
		updates:   make(chan Transaction, 16),
	}
}

// SeedProducts replaces the recognized catalog.
func (f *Fake) SeedProducts(products ...Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = make(map[string]Product, len(products))
	for _, p := range products {
		f.products[p.ID] = p
	}
}

// FailBuy scripts the next buys of productID to return err.
func (f *Fake) FailBuy(productID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buyErrs[productID] = err
}

// SetEvidence sets the receipt blob returned by ReceiptEvidence.
// A nil blob makes ReceiptEvidence return ErrNoReceipt.
func (f *Fake) SetEvidence(evidence []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evidence = evidence
}

// SetRestoreResult scripts the RestoreAll outcome.
func (f *Fake) SetRestoreResult(restored, failed []Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = restored
	f.failed = failed
}

// PushTransaction delivers a payment queue update.
func (f *Fake) PushTransaction(tx Transaction) {
	f.updates <- tx
}

// Finalized reports whether the transaction id was acknowledged.
func (f *Fake) Finalized(txID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finalized[txID]
}

func (f *Fake) FetchProducts(ctx context.Context, ids []string) ([]Product, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var products []Product
	var invalid []string
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			products = append(products, p)
		} else {
			invalid = append(invalid, id)
		}
	}
	return products, invalid, nil
}

func (f *Fake) Buy(ctx context.Context, productID string, quantity int) (Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.buyErrs[productID]; ok {
		return Transaction{}, err
	}
	if _, ok := f.products[productID]; !ok {
		return Transaction{}, &StoreError{Code: CodeInvalid}
	}
	f.nextTxID++
	return Transaction{
		ID:        "tx-" + productID + "-" + strconv.Itoa(f.nextTxID),
		ProductID: productID,
		State:     StatePurchased,
	}, nil
}

func (f *Fake) RestoreAll(ctx context.Context) ([]Transaction, []Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restored, f.failed, nil
}

func (f *Fake) ReceiptEvidence(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.evidence) == 0 {
		return nil, ErrNoReceipt
	}
	return f.evidence, nil
}

func (f *Fake) Transactions() <-chan Transaction {
	return f.updates
}

func (f *Fake) Finalize(ctx context.Context, tx Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalized[tx.ID] {
		return ErrAlreadyFinalized
	}
	f.finalized[tx.ID] = true
	return nil
}

