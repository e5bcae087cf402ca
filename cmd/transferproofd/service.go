// Package main implements transferproofd, the thinnest possible process
// that exercises the transfer circuit and its ambient stack end to end:
// it loads or creates a KeyContext, accepts one proof-generation request at
// a time off disk, and writes the resulting TransactionPayload back to
// disk. It does not talk to a chain, manage a wallet's note set, or
// implement a general CLI framework (spec.md §1's Non-goals); it plays the
// same wiring role the teacher's main.go plays for the auction protocol.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shieldedpay/transferzk/internal/curve"
	"github.com/shieldedpay/transferzk/internal/elgamal"
	"github.com/shieldedpay/transferzk/internal/keys"
	"github.com/shieldedpay/transferzk/internal/obs"
	"github.com/shieldedpay/transferzk/internal/transfer"
)

// Service wires a transfer.Builder to the ambient stack: logging, metrics,
// a health checker, and a dual-axis admission gate (per-caller request
// rate plus bounded proving concurrency) guarding GenerateProof calls
// (spec.md §5's cooperative API surface serializes admission, not the
// proving itself).
type Service struct {
	cfg       *obs.Config
	log       *obs.Logger
	metrics   *obs.MetricsCollector
	health    *obs.HealthChecker
	admission *obs.ProofAdmission

	builder *transfer.Builder
	kc      *transfer.KeyContext

	epochBuilder *transfer.EpochBuilder
	epochKC      *transfer.KeyContext
}

// NewService loads cfg's key-context files, running a fresh trusted setup
// and persisting it if they do not yet exist. The epoch key context is
// loaded or set up the same way, since the epoch circuit variant
// (spec.md §9) has its own proving/verifying key pair.
func NewService(cfg *obs.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("transferproofd: invalid config: %w", err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFile, auditPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("transferproofd: logger: %w", err)
	}

	metrics := obs.NewMetricsCollector()
	health := obs.NewHealthChecker("transferproofd")
	admission := obs.NewProofAdmission(cfg)

	kc, err := loadOrSetupKeyContext(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	epochKC, err := loadOrSetupEpochKeyContext(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:          cfg,
		log:          logger,
		metrics:      metrics,
		health:       health,
		admission:    admission,
		builder:      transfer.NewBuilder(kc),
		kc:           kc,
		epochBuilder: transfer.NewEpochBuilder(epochKC),
		epochKC:      epochKC,
	}

	health.RegisterComponent("keycontext", svc.checkKeyContext)
	health.RegisterComponent("epoch_keycontext", svc.checkEpochKeyContext)
	return svc, nil
}

func auditPath(cfg *obs.Config) string {
	if cfg.EnableAudit {
		return cfg.AuditLogPath
	}
	return ""
}

func loadOrSetupKeyContext(cfg *obs.Config, logger *obs.Logger, metrics *obs.MetricsCollector) (*transfer.KeyContext, error) {
	if _, err := os.Stat(cfg.ProvingKeyPath); err == nil {
		logger.Info("loading existing key context from %s / %s", cfg.ProvingKeyPath, cfg.VerifyingKeyPath)
		kc, err := transfer.Read(cfg.ProvingKeyPath, cfg.VerifyingKeyPath)
		if err != nil {
			return nil, fmt.Errorf("transferproofd: load key context: %w", err)
		}
		metrics.RecordKeyContextLoad()
		return kc, nil
	}

	logger.Warn("no key context found at %s, running trusted setup", cfg.ProvingKeyPath)
	start := time.Now()
	kc, err := transfer.Setup()
	if err != nil {
		return nil, fmt.Errorf("transferproofd: setup: %w", err)
	}
	metrics.RecordCircuitCompile(time.Since(start))

	if err := kc.Write(cfg.ProvingKeyPath, cfg.VerifyingKeyPath); err != nil {
		return nil, fmt.Errorf("transferproofd: persist key context: %w", err)
	}
	logger.Audit(obs.AuditSetupCompleted, "", map[string]interface{}{
		"proving_key_path":   cfg.ProvingKeyPath,
		"verifying_key_path": cfg.VerifyingKeyPath,
	})
	return kc, nil
}

// loadOrSetupEpochKeyContext mirrors loadOrSetupKeyContext for the epoch
// circuit variant's own proving/verifying key pair (cfg.EpochProvingPath /
// cfg.EpochVerifyPath), which until this point were declared in Config but
// never read by anything outside a test.
func loadOrSetupEpochKeyContext(cfg *obs.Config, logger *obs.Logger, metrics *obs.MetricsCollector) (*transfer.KeyContext, error) {
	if _, err := os.Stat(cfg.EpochProvingPath); err == nil {
		logger.Info("loading existing epoch key context from %s / %s", cfg.EpochProvingPath, cfg.EpochVerifyPath)
		kc, err := transfer.ReadEpochKeyContext(cfg.EpochProvingPath, cfg.EpochVerifyPath)
		if err != nil {
			return nil, fmt.Errorf("transferproofd: load epoch key context: %w", err)
		}
		metrics.RecordKeyContextLoad()
		logger.Audit(obs.AuditKeyContextLoaded, "", map[string]interface{}{
			"proving_key_path":   cfg.EpochProvingPath,
			"verifying_key_path": cfg.EpochVerifyPath,
		})
		return kc, nil
	}

	logger.Warn("no epoch key context found at %s, running trusted setup", cfg.EpochProvingPath)
	start := time.Now()
	kc, err := transfer.SetupEpochKeyContext()
	if err != nil {
		return nil, fmt.Errorf("transferproofd: epoch setup: %w", err)
	}
	metrics.RecordCircuitCompile(time.Since(start))

	if err := kc.Write(cfg.EpochProvingPath, cfg.EpochVerifyPath); err != nil {
		return nil, fmt.Errorf("transferproofd: persist epoch key context: %w", err)
	}
	logger.Audit(obs.AuditSetupCompleted, "", map[string]interface{}{
		"proving_key_path":   cfg.EpochProvingPath,
		"verifying_key_path": cfg.EpochVerifyPath,
	})
	return kc, nil
}

// checkKeyContext confirms the loaded key context can still produce a
// proof that self-verifies, by running Prove once against a trivial,
// freshly generated spending key (spending its whole encrypted balance of 1)
// and discarding the result.
func (s *Service) checkKeyContext() error {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("health check: seed: %w", err)
	}
	sk := keys.DeriveSpendingKey(seed)
	recipientDK := keys.DeriveSpendingKey([32]byte{0x01})
	pgk := keys.DeriveProofGenerationKey(recipientDK)
	ekRecipient := keys.EncryptionKey{Point: pgk.Point}

	senderDK, err := keys.DeriveDecryptionKey(keys.DeriveProofGenerationKey(sk))
	if err != nil {
		return fmt.Errorf("health check: sender key: %w", err)
	}
	r, err := curve.RandomScalar(rand.Read)
	if err != nil {
		return fmt.Errorf("health check: balance randomness: %w", err)
	}
	balanceCT := elgamal.Encrypt(1, r, keys.EncryptionKeyOf(senderDK).Point)
	_, err = s.builder.Prove(1, 0, 0, sk, ekRecipient, balanceCT, rand.Reader)
	return err
}

// checkEpochKeyContext mirrors checkKeyContext for the epoch circuit
// variant, additionally witnessing an epoch generator derived from a fixed
// domain-separation label.
func (s *Service) checkEpochKeyContext() error {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("health check: seed: %w", err)
	}
	sk := keys.DeriveSpendingKey(seed)
	recipientDK := keys.DeriveSpendingKey([32]byte{0x01})
	pgk := keys.DeriveProofGenerationKey(recipientDK)
	ekRecipient := keys.EncryptionKey{Point: pgk.Point}

	senderDK, err := keys.DeriveDecryptionKey(keys.DeriveProofGenerationKey(sk))
	if err != nil {
		return fmt.Errorf("health check: sender key: %w", err)
	}
	r, err := curve.RandomScalar(rand.Read)
	if err != nil {
		return fmt.Errorf("health check: balance randomness: %w", err)
	}
	balanceCT := elgamal.Encrypt(1, r, keys.EncryptionKeyOf(senderDK).Point)
	gEpoch := curve.SpendBase()
	_, err = s.epochBuilder.Prove(1, 0, 0, sk, ekRecipient, balanceCT, gEpoch, rand.Reader)
	return err
}

// GenerateRequest describes one proof-generation call, the unit of work
// transferproofd accepts off disk.
type GenerateRequest struct {
	CallerID               string `json:"caller_id"`
	SeedHex                string `json:"seed_hex"`
	EncryptionKeyRecipient string `json:"encryption_key_recipient_hex"`
	Amount                 uint32 `json:"amount"`
	Fee                    uint32 `json:"fee"`
	RemainingBalance       uint32 `json:"remaining_balance"`
	BalanceCiphertextLeft  string `json:"balance_ciphertext_left_hex"`
	BalanceCiphertextRight string `json:"balance_ciphertext_right_hex"`
	OutputPath             string `json:"output_path"`
}

// GenerateProof admits req through s.admission, runs the full Prove flow,
// and writes the resulting payload to req.OutputPath.
func (s *Service) GenerateProof(req GenerateRequest) error {
	release, err := s.admission.Admit(req.CallerID)
	if err != nil {
		s.metrics.RecordError("rate_limited")
		return fmt.Errorf("transferproofd: %w", err)
	}
	defer release()

	seed, err := decodeSeed(req.SeedHex)
	if err != nil {
		return fmt.Errorf("transferproofd: seed: %w", err)
	}
	ekRecipientBytes, err := decodePoint(req.EncryptionKeyRecipient)
	if err != nil {
		return fmt.Errorf("transferproofd: recipient key: %w", err)
	}
	ekRecipientPoint, err := curve.Unmarshal(ekRecipientBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: recipient key: %w", err)
	}

	balLBytes, err := decodePoint(req.BalanceCiphertextLeft)
	if err != nil {
		return fmt.Errorf("transferproofd: balance left: %w", err)
	}
	balRBytes, err := decodePoint(req.BalanceCiphertextRight)
	if err != nil {
		return fmt.Errorf("transferproofd: balance right: %w", err)
	}
	balL, err := curve.Unmarshal(balLBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: balance left: %w", err)
	}
	balR, err := curve.Unmarshal(balRBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: balance right: %w", err)
	}

	sk := keys.DeriveSpendingKey(seed)
	ekRecipient := keys.EncryptionKey{Point: ekRecipientPoint}
	balanceCT := elgamal.Ciphertext{L: balL, R: balR}

	start := time.Now()
	payload, err := s.builder.Prove(req.Amount, req.Fee, req.RemainingBalance, sk, ekRecipient, balanceCT, rand.Reader)
	if err != nil {
		kind := errKind(err)
		s.metrics.RecordProofRejection(kind)
		s.log.Audit(rejectionCategory(kind), kind, map[string]interface{}{"caller_id": req.CallerID, "error": err.Error()})
		return fmt.Errorf("transferproofd: prove: %w", err)
	}
	s.metrics.RecordProofGeneration(time.Since(start))
	s.log.Audit(obs.AuditProofGenerated, "", map[string]interface{}{"caller_id": req.CallerID, "output_path": req.OutputPath})

	raw, err := payload.MarshalBinary()
	if err != nil {
		return fmt.Errorf("transferproofd: marshal payload: %w", err)
	}
	if err := os.WriteFile(req.OutputPath, raw, 0644); err != nil {
		return fmt.Errorf("transferproofd: write payload: %w", err)
	}
	return nil
}

// GenerateEpochRequest is GenerateRequest's counterpart for the epoch
// circuit variant (spec.md §9): the same transfer parameters, plus the
// per-epoch generator point g_epoch the payload's nonce is derived from.
type GenerateEpochRequest struct {
	GenerateRequest
	GEpoch string `json:"g_epoch_hex"`
}

// GenerateEpochProof is GenerateProof's counterpart for the epoch circuit
// variant, admitted through the same per-caller/concurrency gate.
func (s *Service) GenerateEpochProof(req GenerateEpochRequest) error {
	release, err := s.admission.Admit(req.CallerID)
	if err != nil {
		s.metrics.RecordError("rate_limited")
		return fmt.Errorf("transferproofd: %w", err)
	}
	defer release()

	seed, err := decodeSeed(req.SeedHex)
	if err != nil {
		return fmt.Errorf("transferproofd: seed: %w", err)
	}
	ekRecipientBytes, err := decodePoint(req.EncryptionKeyRecipient)
	if err != nil {
		return fmt.Errorf("transferproofd: recipient key: %w", err)
	}
	ekRecipientPoint, err := curve.Unmarshal(ekRecipientBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: recipient key: %w", err)
	}

	balLBytes, err := decodePoint(req.BalanceCiphertextLeft)
	if err != nil {
		return fmt.Errorf("transferproofd: balance left: %w", err)
	}
	balRBytes, err := decodePoint(req.BalanceCiphertextRight)
	if err != nil {
		return fmt.Errorf("transferproofd: balance right: %w", err)
	}
	balL, err := curve.Unmarshal(balLBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: balance left: %w", err)
	}
	balR, err := curve.Unmarshal(balRBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: balance right: %w", err)
	}
	gEpochBytes, err := decodePoint(req.GEpoch)
	if err != nil {
		return fmt.Errorf("transferproofd: g_epoch: %w", err)
	}
	gEpoch, err := curve.Unmarshal(gEpochBytes)
	if err != nil {
		return fmt.Errorf("transferproofd: g_epoch: %w", err)
	}

	sk := keys.DeriveSpendingKey(seed)
	ekRecipient := keys.EncryptionKey{Point: ekRecipientPoint}
	balanceCT := elgamal.Ciphertext{L: balL, R: balR}

	start := time.Now()
	payload, err := s.epochBuilder.Prove(req.Amount, req.Fee, req.RemainingBalance, sk, ekRecipient, balanceCT, gEpoch, rand.Reader)
	if err != nil {
		kind := errKind(err)
		s.metrics.RecordProofRejection(kind)
		s.log.Audit(rejectionCategory(kind), kind, map[string]interface{}{"caller_id": req.CallerID, "error": err.Error()})
		return fmt.Errorf("transferproofd: prove: %w", err)
	}
	s.metrics.RecordProofGeneration(time.Since(start))
	s.log.Audit(obs.AuditProofGenerated, "", map[string]interface{}{"caller_id": req.CallerID, "output_path": req.OutputPath})

	raw, err := payload.MarshalBinary()
	if err != nil {
		return fmt.Errorf("transferproofd: marshal payload: %w", err)
	}
	if err := os.WriteFile(req.OutputPath, raw, 0644); err != nil {
		return fmt.Errorf("transferproofd: write payload: %w", err)
	}
	return nil
}

func decodeSeed(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodePoint(s string) ([32]byte, error) {
	return decodeSeed(s)
}

// rejectionCategory distinguishes a proof that failed to synthesize at all
// from one that synthesized but failed its own self-verification, since
// the latter (errKind "malformed_verifying_key") signals a corrupted key
// file or circuit/key version mismatch rather than an out-of-range input,
// and operators grepping the audit log want to tell those apart.
func rejectionCategory(kind string) obs.AuditCategory {
	if kind == "malformed_verifying_key" {
		return obs.AuditVerifyKeyMismatch
	}
	return obs.AuditProofRejected
}

// errKind maps a Prove failure to its boundary error taxonomy label
// (spec.md §6/§7), falling back to "unknown" for anything that doesn't
// wrap one of transfer's sentinel errors.
func errKind(err error) string {
	switch {
	case errors.Is(err, transfer.ErrSynthesisFailed):
		return "synthesis_failed"
	case errors.Is(err, transfer.ErrMalformedVerifyingKey):
		return "malformed_verifying_key"
	case errors.Is(err, transfer.ErrInvalidSeed):
		return "invalid_seed"
	case errors.Is(err, transfer.ErrIO):
		return "io"
	default:
		return "unknown"
	}
}
