package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/pkg/config"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/filestorage"
	"it-inventory/pkg/pdf"
	"it-inventory/pkg/validation"

	"go.uber.org/zap"
)

// Типы архивных актов, которые можно выдать по запросу.
var documentContentTypes = map[string]string{
	".pdf": "application/pdf",
	".jpg": "image/jpeg",
	".png": "image/png",
}

// SignedDocument - загруженный скан подписанного акта. Если он передан,
// акт не генерируется.
type SignedDocument struct {
	FileName string
	Content  io.Reader
}

type HandoverServiceInterface interface {
	Issue(ctx context.Context, actor entities.Actor, issueDTO dto.IssueDTO, signed *SignedDocument) (*entities.TransferRecord, error)
	Return(ctx context.Context, actor entities.Actor, returnDTO dto.ReturnDTO, signed *SignedDocument) (*entities.CustodyRecord, error)
	Preview(ctx context.Context, w io.Writer, certDTO dto.CertificateDTO) error
	OpenDocument(ctx context.Context, documentPath string) (io.ReadCloser, string, error)
}

type HandoverService struct {
	custody  CustodyServiceInterface
	renderer pdf.Renderer
	storage  filestorage.FileStorageInterface
	cfg      config.PDFConfig
	now      func() time.Time
	logger   *zap.Logger
}

func NewHandoverService(
	custody CustodyServiceInterface,
	renderer pdf.Renderer,
	storage filestorage.FileStorageInterface,
	cfg config.PDFConfig,
	logger *zap.Logger,
) HandoverServiceInterface {
	return &HandoverService{
		custody:  custody,
		renderer: renderer,
		storage:  storage,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *HandoverService) certificate(direction pdf.Direction, employee entities.Employee, item pdf.Item) pdf.Certificate {
	c := pdf.Certificate{
		Date:         s.now(),
		Direction:    direction,
		Organization: s.cfg.Organization,
		Department:   employee.Department,
		Division:     employee.Division.String,
		Issuer: pdf.Party{
			FullName:  s.cfg.IssuerName,
			ShortName: s.cfg.IssuerName,
			Position:  s.cfg.IssuerPosition,
		},
		Employee: pdf.Party{
			FullName:  employee.FullName,
			ShortName: employee.ShortName,
			Position:  employee.Position.String,
		},
		Items: []pdf.Item{item},
	}
	if employee.PassportNumber.Valid {
		c.Passport = employee.PassportNumber.String
		if employee.PassportIssueDate.Valid {
			c.Passport += ", выдан " + employee.PassportIssueDate.Time.Format("02.01.2006")
		}
		if employee.PassportIssuedBy.Valid {
			c.Passport += ", " + employee.PassportIssuedBy.String
		}
	}
	return c
}

// stage кладёт акт во временный каталог: загруженный скан или сгенерированный PDF.
// Расширение скана определяется по содержимому, имя файла от клиента не используется.
func (s *HandoverService) stage(signed *SignedDocument, cert pdf.Certificate) (string, error) {
	rules := config.UploadContexts[config.UploadHandoverDocument]

	var content io.Reader
	fileName := "certificate.pdf"
	if signed != nil {
		ext, head, err := validation.DetectExtension(signed.Content, config.UploadHandoverDocument)
		if err != nil {
			return "", err
		}
		content, fileName = head, "document"+ext
	} else {
		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, cert); err != nil {
			return "", fmt.Errorf("не удалось сформировать акт: %w", err)
		}
		content = &buf
	}

	stagingPath, err := s.storage.Save(content, fileName, rules.PathPrefix)
	if err != nil {
		return "", &apperrors.StorageError{Op: "save", Path: fileName, Err: err}
	}
	return stagingPath, nil
}

func (s *HandoverService) discard(stagingPath string) {
	if err := s.storage.Delete(stagingPath); err != nil {
		s.logger.Error("не удалось удалить временный акт", zap.String("path", stagingPath), zap.Error(err))
	}
}

func (s *HandoverService) Issue(ctx context.Context, actor entities.Actor, issueDTO dto.IssueDTO, signed *SignedDocument) (*entities.TransferRecord, error) {
	custody, err := s.custody.FindCustody(ctx, issueDTO.Ref())
	if err != nil {
		return nil, err
	}

	employee := issueDTO.Employee.ToEntity()
	cert := s.certificate(pdf.DirectionIssue, employee, pdf.Item{
		Name:            custody.EquipmentName,
		InventoryNumber: custody.InventoryNumber,
		SerialNumber:    custody.SerialNumber,
	})

	stagingPath, err := s.stage(signed, cert)
	if err != nil {
		return nil, err
	}
	defer s.discard(stagingPath)

	return s.custody.IssueToEmployee(ctx, actor, issueDTO.Ref(), employee, stagingPath)
}

func (s *HandoverService) Return(ctx context.Context, actor entities.Actor, returnDTO dto.ReturnDTO, signed *SignedDocument) (*entities.CustodyRecord, error) {
	transfer, err := s.custody.FindTransfer(ctx, returnDTO.Ref())
	if err != nil {
		return nil, err
	}

	cert := s.certificate(pdf.DirectionReturn, transfer.Employee, pdf.Item{
		Name:            transfer.EquipmentName,
		InventoryNumber: transfer.InventoryNumber,
		SerialNumber:    transfer.SerialNumber,
	})

	stagingPath, err := s.stage(signed, cert)
	if err != nil {
		return nil, err
	}
	defer s.discard(stagingPath)

	return s.custody.ReturnFromEmployee(ctx, actor, returnDTO.Ref(), stagingPath)
}

// Preview формирует акт без изменения учёта.
func (s *HandoverService) Preview(ctx context.Context, w io.Writer, certDTO dto.CertificateDTO) error {
	direction := pdf.DirectionIssue
	if certDTO.Direction == string(pdf.DirectionReturn) {
		direction = pdf.DirectionReturn
	}
	cert := s.certificate(direction, certDTO.Employee.ToEntity(), pdf.Item{
		Name:            certDTO.EquipmentName,
		InventoryNumber: certDTO.InventoryNumber,
		SerialNumber:    certDTO.SerialNumber,
	})
	return s.renderer.Render(w, cert)
}

// OpenDocument открывает архивный акт. Доступны только каталоги выданных и принятых актов.
func (s *HandoverService) OpenDocument(ctx context.Context, documentPath string) (io.ReadCloser, string, error) {
	clean := path.Clean("/" + documentPath)[1:]
	dir, _, _ := strings.Cut(clean, "/")
	if dir != TransferredDir && dir != AcceptionDir {
		return nil, "", apperrors.ErrNotFound
	}
	contentType, ok := documentContentTypes[path.Ext(clean)]
	if !ok {
		return nil, "", apperrors.ErrNotFound
	}

	rc, err := s.storage.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperrors.ErrNotFound
		}
		return nil, "", &apperrors.StorageError{Op: "open", Path: clean, Err: err}
	}
	return rc, contentType, nil
}
