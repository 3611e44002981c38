package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// mileageHeaderPrefix identifies the mileage export schema. The provider
// ships it semicolon-delimited and Latin-1 encoded, unlike the movement
// export which is comma-delimited UTF-8.
const mileageHeaderPrefix = "Identifiant unique;Collaborateur;Email"

// vatConsistencyTolerance bounds the accepted gap between the aggregate VAT
// column and the sum of the per-rate buckets before a warning is logged.
var vatConsistencyTolerance = decimal.NewFromFloat(0.01)

type importerService struct {
	txnRepo     portsrepo.TransactionRepositoryFacade
	mileageRepo portsrepo.MileageRepositoryFacade
	refIndexSvc portssvc.RefIndexSvcFacade
	matchMode   domain.PartnerMatchMode
}

// NewImporterService creates the CSV import service.
func NewImporterService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	mileageRepo portsrepo.MileageRepositoryFacade,
	refIndexSvc portssvc.RefIndexSvcFacade,
	matchMode domain.PartnerMatchMode,
) portssvc.ImporterSvcFacade {
	return &importerService{
		txnRepo:     txnRepo,
		mileageRepo: mileageRepo,
		refIndexSvc: refIndexSvc,
		matchMode:   matchMode,
	}
}

// ImportCSV sniffs the schema from the header line and dispatches. The whole
// file is validated and normalized before anything is persisted, so a
// malformed file never leaves a partial batch behind.
func (s *importerService) ImportCSV(ctx context.Context, companyID string, data []byte, importedBy string) (*portssvc.ImportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.MalformedInput("the file is empty")
	}

	idx, err := s.refIndexSvc.BuildIndex(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if isMileageSchema(data) {
		logger.Info("importing mileage CSV", "company_id", companyID, "bytes", len(data))
		return s.importMileageCSV(ctx, idx, data, importedBy)
	}
	logger.Info("importing transaction CSV", "company_id", companyID, "bytes", len(data))
	return s.importTransactionCSV(ctx, idx, data, importedBy)
}

// isMileageSchema sniffs the header. The mileage export is Latin-1 encoded
// but its discriminating columns are plain ASCII, so the raw prefix check is
// encoding-safe.
func isMileageSchema(data []byte) bool {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	return bytes.HasPrefix(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")), []byte(mileageHeaderPrefix))
}

// parseCSV reads all rows of a delimited file into raw records keyed by the
// header columns. Line numbers are file lines, header included, so error
// messages point at the line a user sees in a spreadsheet.
func parseCSV(data []byte, comma rune) ([]RawRecord, []int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, apperrors.MalformedInput("cannot read CSV header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []RawRecord
	var lines []int
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.MalformedInput("cannot read CSV line %d: %v", line, err)
		}
		record := make(RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func (s *importerService) importTransactionCSV(ctx context.Context, idx *domain.ReferenceIndex, data []byte, importedBy string) (*portssvc.ImportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	records, lines, err := parseCSV(data, ',')
	if err != nil {
		return nil, err
	}

	// Every row must carry its dedup key before anything is written.
	for i, record := range records {
		if importID(record) == "" {
			return nil, apperrors.MalformedInput("line %d of the file has no ID", lines[i])
		}
	}

	existing, err := s.txnRepo.ImportedStatesByCompany(ctx, idx.CompanyID)
	if err != nil {
		return nil, err
	}

	result := &portssvc.ImportResult{}
	now := time.Now().UTC()
	for i, record := range records {
		key := importID(record)
		prior, known := existing[key]
		if !known {
			// Records created from a legacy export are keyed by their old
			// 'transaction_id'; a newer file carrying both columns must
			// still match them instead of creating a duplicate.
			if legacy := record.Get("transaction_id"); legacy != "" {
				prior, known = existing[legacy]
			}
		}

		if known && prior.State == domain.StateDone {
			result.Skipped++
			continue
		}

		mode := ModeCreate
		if known {
			mode = ModeUpdate
		}
		vals, err := NormalizeTransaction(record, idx, NormalizeOptions{
			Mode:      mode,
			Source:    SourceCSV,
			MatchMode: s.matchMode,
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lines[i], err)
		}
		warnVATGap(logger, record, key)

		if known {
			txn, err := s.txnRepo.FindTransactionByID(ctx, prior.ID)
			if err != nil {
				return nil, err
			}
			applyTransactionValues(txn, vals, ModeUpdate)
			txn.LastUpdatedBy = importedBy
			txn.LastUpdatedAt = now
			if err := s.txnRepo.UpdateDraftTransaction(ctx, *txn); err != nil {
				return nil, err
			}
			result.TransactionIDs = append(result.TransactionIDs, txn.TransactionID)
			result.Updated++
			continue
		}

		txn := &domain.CardTransaction{
			CompanyID:      idx.CompanyID,
			UniqueImportID: key,
			State:          domain.StateDraft,
		}
		applyTransactionValues(txn, vals, ModeCreate)
		txn.CreatedBy = importedBy
		txn.CreatedAt = now
		txn.LastUpdatedBy = importedBy
		txn.LastUpdatedAt = now
		created, err := s.txnRepo.CreateTransaction(ctx, *txn)
		if err != nil {
			return nil, err
		}
		result.TransactionIDs = append(result.TransactionIDs, created.TransactionID)
		result.Created++
	}

	logger.Info("transaction CSV imported",
		"company_id", idx.CompanyID,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func (s *importerService) importMileageCSV(ctx context.Context, idx *domain.ReferenceIndex, data []byte, importedBy string) (*portssvc.ImportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, apperrors.MalformedInput("cannot decode Latin-1 mileage file: %v", err)
	}

	records, lines, err := parseCSV(decoded, ';')
	if err != nil {
		return nil, err
	}
	for i, record := range records {
		if record.Get(mileageColID) == "" {
			return nil, apperrors.MalformedInput("line %d of the file has no ID", lines[i])
		}
	}

	existing, err := s.mileageRepo.ImportedStatesByCompany(ctx, idx.CompanyID)
	if err != nil {
		return nil, err
	}

	result := &portssvc.ImportResult{}
	now := time.Now().UTC()
	for i, record := range records {
		key := record.Get(mileageColID)
		prior, known := existing[key]

		if known && prior.State == domain.StateDone {
			result.Skipped++
			continue
		}

		mode := ModeCreate
		if known {
			mode = ModeUpdate
		}
		vals, err := NormalizeMileageCSV(record, idx, NormalizeOptions{
			Mode:      mode,
			Source:    SourceCSV,
			MatchMode: s.matchMode,
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lines[i], err)
		}

		if known {
			m, err := s.mileageRepo.FindMileageByID(ctx, prior.ID)
			if err != nil {
				return nil, err
			}
			applyMileageValues(m, vals, ModeUpdate)
			m.LastUpdatedBy = importedBy
			m.LastUpdatedAt = now
			if err := s.mileageRepo.UpdateDraftMileage(ctx, *m); err != nil {
				return nil, err
			}
			result.MileageIDs = append(result.MileageIDs, m.MileageID)
			result.Updated++
			continue
		}

		m := &domain.Mileage{
			CompanyID:      idx.CompanyID,
			UniqueImportID: key,
		}
		applyMileageValues(m, vals, ModeCreate)
		m.CreatedBy = importedBy
		m.CreatedAt = now
		m.LastUpdatedBy = importedBy
		m.LastUpdatedAt = now
		created, err := s.mileageRepo.CreateMileage(ctx, *m)
		if err != nil {
			return nil, err
		}
		result.MileageIDs = append(result.MileageIDs, created.MileageID)
		result.Created++
	}

	logger.Info("mileage CSV imported",
		"company_id", idx.CompanyID,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// importID returns the dedup key of a movement record. Legacy provider
// exports carried the key in 'transaction_id' before the 'id' column
// existed; both generations of files must import identically.
func importID(record RawRecord) string {
	if id := record.Get("id"); id != "" {
		return id
	}
	return record.Get("transaction_id")
}

// applyTransactionValues writes normalized values onto a transaction.
// Identity fields are only touched in create mode.
func applyTransactionValues(txn *domain.CardTransaction, vals *TransactionValues, mode NormalizeMode) {
	txn.TransactionType = vals.TransactionType
	txn.Description = vals.Description
	txn.ExpenseCategory = vals.ExpenseCategory
	txn.ExpenseAccountID = vals.ExpenseAccountID
	txn.AnalyticAccountID = vals.AnalyticAccountID
	txn.VATAmount = vals.VATAmount
	txn.VATRate = vals.VATRate
	txn.ImageURL = vals.ImageURL
	txn.ReceiptNumber = vals.ReceiptNumber
	txn.PartnerID = vals.PartnerID
	txn.BankCounterpartAccountID = vals.BankCounterpartAccountID

	if mode == ModeUpdate {
		return
	}
	txn.UniqueImportID = vals.UniqueImportID
	txn.Date = vals.Date
	txn.PaymentDate = vals.PaymentDate
	txn.CardID = vals.CardID
	txn.CountryCode = vals.CountryCode
	txn.Vendor = vals.Vendor
	txn.TotalAmount = vals.TotalAmount
	txn.TotalCurrency = vals.TotalCurrency
	txn.CurrencyCode = vals.CurrencyCode
	txn.Autoliquidation = vals.Autoliquidation
}

func applyMileageValues(m *domain.Mileage, vals *MileageValues, mode NormalizeMode) {
	m.Description = vals.Description
	m.Departure = vals.Departure
	m.Arrival = vals.Arrival
	m.TripType = vals.TripType
	m.KM = vals.KM
	m.PriceUnit = vals.PriceUnit
	m.CarName = vals.CarName
	m.CarPlate = vals.CarPlate
	m.CarFiscalPower = vals.CarFiscalPower
	m.ExpenseAccountID = vals.ExpenseAccountID
	m.AnalyticAccountID = vals.AnalyticAccountID

	if mode == ModeUpdate {
		return
	}
	m.UniqueImportID = vals.UniqueImportID
	m.Date = vals.Date
	m.PartnerID = vals.PartnerID
}

// warnVATGap logs when the aggregate VAT column disagrees with the sum of
// the per-rate buckets beyond rounding tolerance. The aggregate wins; the
// gap is an upstream data-quality signal, not an error.
func warnVATGap(logger *slog.Logger, record RawRecord, key string) {
	amounts, err := coerceFloats(record, transactionFloatFields)
	if err != nil {
		return
	}
	sum := decimal.Zero
	for _, bucket := range vatBuckets {
		sum = sum.Add(amounts[bucket.field])
	}
	gap := amounts["vat_eur"].Sub(sum).Abs()
	if gap.GreaterThan(vatConsistencyTolerance) {
		logger.Warn("VAT aggregate disagrees with per-rate buckets",
			"unique_import_id", key,
			"vat_eur", amounts["vat_eur"].String(),
			"bucket_sum", sum.String())
	}
}
