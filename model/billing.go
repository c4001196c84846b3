package model

import "gorm.io/gorm"

// Billing payment states. Pending moves to paid exactly once and never back.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Billing is the cost attached to a service request by the treating doctor.
type Billing struct {
	gorm.Model
	RequestID     uint   `json:"request_id" gorm:"column:request_id;not null;index"`
	InvoiceNumber string `json:"invoice_number" gorm:"column:invoice_number;uniqueIndex;size:36"`
	ServiceCost   string `json:"service_cost" gorm:"column:service_cost;type:decimal(10,2)"`
	PaymentStatus string `json:"payment_status" gorm:"column:payment_status;size:10;not null"`
}

// MarkBillPaid performs the pending -> paid flip as a compare-and-set.
// Returns false when the bill is missing or already paid.
func MarkBillPaid(db *gorm.DB, billID uint) (bool, error) {
	result := db.Model(&Billing{}).
		Where("id = ? AND payment_status = ?", billID, PaymentPending).
		Update("payment_status", PaymentPaid)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
