package enums

// NotificationType labels in-app notification rows.
type NotificationType string

const (
	NotificationOrderCreated       NotificationType = "order_created"
	NotificationOrderStatusChanged NotificationType = "order_status_changed"
	NotificationOrderDeleted       NotificationType = "order_deleted"
)
