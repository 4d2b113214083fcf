// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthAccountSuspended   = "auth.account_suspended"

	// Users and profiles
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserSuspended      = "user.suspended"
	KeyAccessDenied       = "user.access_denied"

	// Farms and crops
	KeyFarmCreated   = "farm.created"
	KeyFarmUpdated   = "farm.updated"
	KeyFarmDeleted   = "farm.deleted"
	KeyFarmNotFound  = "farm.not_found"
	KeyCropCreated   = "crop.created"
	KeyCropUpdated   = "crop.updated"
	KeyCropDeleted   = "crop.deleted"
	KeyCropNotFound  = "crop.not_found"
	KeyCropHasActive = "crop.has_active_publication"

	// Publications
	KeyPublicationCreated      = "publication.created"
	KeyPublicationUpdated      = "publication.updated"
	KeyPublicationDeleted      = "publication.deleted"
	KeyPublicationNotFound     = "publication.not_found"
	KeyPublicationPaused       = "publication.paused"
	KeyPublicationResumed      = "publication.resumed"
	KeyPublicationSoldOut      = "publication.sold_out"
	KeyPublicationStockLow     = "publication.insufficient_stock"
	KeyPublicationBelowMinimum = "publication.below_minimum"
	KeyPublicationUnitMismatch = "publication.unit_not_convertible"

	// Cart
	KeyCartItemAdded   = "cart.item_added"
	KeyCartItemUpdated = "cart.item_updated"
	KeyCartItemRemoved = "cart.item_removed"
	KeyCartCleared     = "cart.cleared"
	KeyCartEmpty       = "cart.empty"
	KeyCartOwnListing  = "cart.own_listing"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderConfirmed         = "order.confirmed"
	KeyOrderInPreparation     = "order.in_preparation"
	KeyOrderShipped           = "order.shipped"
	KeyOrderInTransit         = "order.in_transit"
	KeyOrderReceived          = "order.received"
	KeyOrderCompleted         = "order.completed"
	KeyOrderCancelled         = "order.cancelled"
	KeyOrderInvalidTransition = "order.invalid_transition"
	KeyOrderNotPaid           = "order.not_paid"

	// Payments
	KeyPaymentCreated       = "payment.created"
	KeyPaymentSuccess       = "payment.success"
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentPending       = "payment.pending"
	KeyPaymentNotFound      = "payment.not_found"
	KeyPaymentAlreadyExists = "payment.already_exists"
	KeyPaymentBelowMinimum  = "payment.below_minimum"
	KeyPaymentCancelled     = "payment.cancelled"

	// Ratings
	KeyRatingCreated       = "rating.created"
	KeyRatingExists        = "rating.exists"
	KeyRatingOrderNotDone  = "rating.order_not_completed"
	KeyRatingNotFound      = "rating.not_found"
	KeyRatingNotParticipant = "rating.not_participant"

	// Messaging
	KeyConversationCreated  = "conversation.created"
	KeyConversationNotFound = "conversation.not_found"
	KeyMessageSent          = "message.sent"
	KeyMessageEmpty         = "message.empty"

	// Notifications
	KeyNotificationRead    = "notification.read"
	KeyNotificationAllRead = "notification.all_read"

	// Admin
	KeyAdminActionSuccess   = "admin.action_success"
	KeyAdminUserSuspended   = "admin.user_suspended"
	KeyAdminUserReactivated = "admin.user_reactivated"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationEmail    = "validation.invalid_email"
	KeyValidationPassword = "validation.invalid_password"
	KeyValidationUnit     = "validation.invalid_unit"
	KeyValidationQuantity = "validation.invalid_quantity"

	// File upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
