package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"
)

// RenderReceiptPDF renders a single payment receipt.
func RenderReceiptPDF(user models.User, rec models.PaymentRecord, planName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, utils.AppName)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Receipt ID: "+rec.ID)
	pdf.Ln(8)
	pdf.Cell(0, 8, "Date: "+rec.Date.UTC().Format("2006-01-02 15:04:05 MST"))
	pdf.Ln(8)
	pdf.Cell(0, 8, "Transaction: "+rec.TransactionID)
	pdf.Ln(8)
	if rec.OrderID != "" {
		pdf.Cell(0, 8, "Order: "+rec.OrderID)
		pdf.Ln(8)
	}
	pdf.Cell(0, 8, "Payment Method: "+rec.Method)
	pdf.Ln(12)

	// Billed to
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(100, 8, "Billed To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 12)
	if user.Name != "" {
		pdf.Cell(100, 8, user.Name)
		pdf.Ln(6)
	}
	pdf.Cell(100, 8, user.Email)
	pdf.Ln(12)

	// Line item
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(90, 8, "Plan", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Tokens", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, "Price", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(90, 8, planName, "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, tokensLabel(rec.TokensPurchased), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, money(rec.Amount+rec.Discount, rec.Currency), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	// Summary
	pdf.Ln(4)
	if rec.Discount > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(120, 8, fmt.Sprintf("Discount (%s):", rec.CouponCode), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(40, 8, "-"+money(rec.Discount, rec.Currency), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(120, 10, "Total Paid:", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 10, money(rec.Amount, rec.Currency), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 12)
	pdf.Cell(0, 10, "Thank you for building with "+utils.AppName+"!")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPaymentsXLSX renders payment records as a spreadsheet for admins.
func ExportPaymentsXLSX(records []models.PaymentRecord) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Payments")
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString(strings.ToUpper(utils.AppName) + " - Payments")
	sheet.AddRow()

	headers := []string{"Payment ID", "User ID", "Date", "Plan", "Method", "Transaction ID", "Order ID", "Coupon", "Discount", "Amount", "Currency", "Tokens", "Status"}
	headerRow := sheet.AddRow()
	bold := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	bold.Font = *font
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	var total, discounts float64
	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.ID)
		row.AddCell().SetString(rec.UserID)
		row.AddCell().SetString(rec.Date.UTC().Format("2006-01-02 15:04"))
		row.AddCell().SetString(rec.PlanID)
		row.AddCell().SetString(rec.Method)
		row.AddCell().SetString(rec.TransactionID)
		row.AddCell().SetString(rec.OrderID)
		row.AddCell().SetString(rec.CouponCode)
		row.AddCell().SetFloat(rec.Discount)
		row.AddCell().SetFloat(rec.Amount)
		row.AddCell().SetString(rec.Currency)
		row.AddCell().SetInt(rec.TokensPurchased)
		row.AddCell().SetString(rec.Status)
		total += rec.Amount
		discounts += rec.Discount
	}

	sheet.AddRow()
	summary := [][]string{
		{"Payments", fmt.Sprintf("%d", len(records))},
		{"Total Collected", fmt.Sprintf("%.2f", total)},
		{"Total Discounts", fmt.Sprintf("%.2f", discounts)},
	}
	for _, data := range summary {
		row := sheet.AddRow()
		label := row.AddCell()
		label.SetString(data[0])
		label.SetStyle(bold)
		row.AddCell().SetString(data[1])
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func money(amount float64, currency string) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func tokensLabel(tokens int) string {
	if tokens >= models.UnlimitedTokens {
		return "Unlimited"
	}
	return fmt.Sprintf("%d", tokens)
}
