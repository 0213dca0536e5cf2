// Package badge renders staff badges: a QR code carrying the staff
// identifier and a printable PDF card around it.
package badge

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
)

const payloadPrefix = "workforce:staff:"

// Payload is the text encoded into a staff member's QR code.
func Payload(staffID int) string {
	return payloadPrefix + strconv.Itoa(staffID)
}

// ParsePayload returns the staff id carried by a scanned badge.
func ParsePayload(s string) (int, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), payloadPrefix)
	if raw == strings.TrimSpace(s) {
		return 0, apperr.New(apperr.InvalidArgument, "not a staff badge")
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.InvalidArgument, "badge carries an invalid staff id %q", raw)
	}
	return id, nil
}

// QRCode returns a PNG of the staff member's badge code.
func QRCode(staffID int, size int) ([]byte, error) {
	png, err := qrcode.Encode(Payload(staffID), qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}
	return png, nil
}

// PDF writes one A6 badge page per staff member to w.
func PDF(w io.Writer, staff []entity.Staff) error {
	if len(staff) == 0 {
		return apperr.New(apperr.InvalidArgument, "no staff to print")
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetTitle("Staff badges", true)

	for _, s := range staff {
		png, err := QRCode(s.ID, 512)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("qr-%d", s.ID)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))

		pdf.AddPage()
		pageW, _ := pdf.GetPageSize()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetXY(0, 12)
		pdf.CellFormat(pageW, 10, s.FullName, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(pageW, 8, fmt.Sprintf("%s  #%d", s.Role, s.ID), "", 1, "C", false, 0, "")

		const qrSize = 70.0
		pdf.ImageOptions(name, (pageW-qrSize)/2, 40, qrSize, qrSize, false, opts, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing badge pdf")
	}
	return nil
}
