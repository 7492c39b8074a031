package apperr

// User facing messages.
const (
	MsgInternal          = "حدث خطأ في الخادم، يرجى المحاولة لاحقاً"
	MsgInvalidInput      = "البيانات المدخلة غير صحيحة"
	MsgInvalidJSON       = "صيغة الطلب غير صالحة"
	MsgUnauthenticated   = "يرجى تسجيل الدخول للمتابعة"
	MsgInvalidToken      = "رمز الدخول غير صالح أو منتهي الصلاحية"
	MsgForbidden         = "ليس لديك صلاحية للقيام بهذا الإجراء"
	MsgTooManyRequests   = "عدد كبير من الطلبات، يرجى المحاولة لاحقاً"
	MsgRouteNotFound     = "المسار غير موجود"
	MsgInvalidCredential = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	MsgAccountDisabled   = "تم تعطيل هذا الحساب"
	MsgEmailTaken        = "البريد الإلكتروني مستخدم بالفعل"
	MsgWrongPassword     = "كلمة المرور الحالية غير صحيحة"
	MsgUserNotFound      = "المستخدم غير موجود"
	MsgInsufficientFunds = "رصيد المحفظة غير كافٍ"
	MsgSelfDeactivate    = "لا يمكنك تعطيل حسابك"
	MsgSelfDemote        = "لا يمكنك تغيير صلاحياتك"

	MsgProductNotFound  = "المنتج غير موجود"
	MsgCategoryNotFound = "التصنيف غير موجود"
	MsgCategoryInUse    = "لا يمكن حذف تصنيف يحتوي على منتجات أو تصنيفات فرعية"
	MsgSlugTaken        = "الرابط المختصر مستخدم بالفعل"
	MsgCategoryCycle    = "لا يمكن جعل التصنيف فرعياً لأحد تصنيفاته الفرعية"

	MsgOrderNotFound      = "الطلب غير موجود"
	MsgOrderNotCancelable = "لا يمكن إلغاء الطلب في حالته الحالية"
	MsgOrderSameStatus    = "الطلب في هذه الحالة بالفعل"
	MsgEmptyOrder         = "يجب أن يحتوي الطلب على منتج واحد على الأقل"
	MsgGuestContact       = "يرجى إدخال البريد الإلكتروني أو رقم الهاتف"
	MsgWalletGuest        = "الدفع بالمحفظة متاح للمستخدمين المسجلين فقط"

	MsgReviewNotFound  = "التقييم غير موجود"
	MsgReviewDuplicate = "لقد قمت بتقييم هذا المنتج مسبقاً"

	MsgCouponNotFound = "الكوبون غير موجود"
	MsgCouponTaken    = "رمز الكوبون مستخدم بالفعل"

	MsgCartSession  = "يرجى تسجيل الدخول أو إرسال معرف سلة التسوق"
	MsgCartNotFound = "العنصر غير موجود في سلة التسوق"
)
