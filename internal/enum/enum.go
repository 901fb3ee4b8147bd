package enum

// Item status values on the order ledger. Mixed casing mirrors what the
// station dashboards send and filter on.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusServed     = "Served"
	StatusRejected   = "Rejected"
	StatusCancelled  = "CANCELLED"
)

// Final status values. The ledger is stamped "completed" (lowercase) when an
// order is sent to the cashier and "Completed" when the sale is finalized.
const (
	FinalStatusSent      = "completed"
	FinalStatusCompleted = "Completed"
)

const (
	OrderTypeUpdatedAwaitingResponse = "Updated-Awaiting Response"
)

// Station locations. Items placed for a space location skip the station
// queues entirely and are born Served.
const (
	LocationKitchen = "kitchen"
	LocationBar     = "bar"
	LocationShisha  = "shisha"
	LocationSpace   = "space"
)

// Notification channels.
const (
	ChannelKitchen          = "kitchen"
	ChannelBar              = "bar"
	ChannelShisha           = "shisha"
	ChannelCashier          = "cashier"
	ChannelOrder            = "order"
	ChannelSpecialDiscount  = "specialdiscount"
	ChannelOrderItemsManage = "orderitemsmanage"
)

const (
	MergeStatusMerged = "MERGED"
)

const (
	CashierStatusComplete = "Complete"
)

const (
	SpecialDiscountPending  = "Pending"
	SpecialDiscountApproved = "Approved"
	SpecialDiscountRejected = "Rejected"
)
