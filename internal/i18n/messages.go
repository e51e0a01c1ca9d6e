package i18n

var messages = map[string]map[string]string{
	LocalePtBR: {
		"error.bad_request":                     "Requisição inválida",
		"error.unauthorized":                    "Não autenticado",
		"error.forbidden":                       "Acesso negado",
		"error.not_found":                       "Recurso não encontrado",
		"error.too_many_requests":               "Muitas tentativas, aguarde e tente novamente",
		"error.internal_error":                  "Erro interno, tente novamente mais tarde",
		"error.webhook_signature_invalid":       "Assinatura do webhook inválida",
		"error.invalid_order_item":              "Itens do pedido inválidos",
		"error.invalid_address":                 "Endereço de entrega incompleto",
		"error.invalid_payment_method":          "Forma de pagamento não suportada",
		"error.invalid_shipping":                "Valor de frete inválido",
		"error.invalid_cpf":                     "CPF inválido",
		"error.invalid_card_token":              "Token do cartão obrigatório",
		"error.invalid_email":                   "E-mail inválido",
		"error.weak_password":                   "Senha fraca",
		"error.password_min_length":             "A senha deve ter pelo menos %d caracteres",
		"error.password_require_upper":          "A senha deve conter letra maiúscula",
		"error.password_require_lower":          "A senha deve conter letra minúscula",
		"error.password_require_number":         "A senha deve conter número",
		"error.invalid_special_day":             "Período do dia especial inválido",
		"error.invalid_coupon_type":             "Tipo de cupom inválido",
		"error.invalid_order_status":            "Status de pedido inválido",
		"error.invalid_product":                 "Dados do produto inválidos",
		"error.product_unavailable":             "Produto disponível apenas em dia especial",
		"error.insufficient_stock":              "Estoque insuficiente",
		"error.requires_special_day":            "Cupons só podem ser usados em dia especial",
		"error.already_used":                    "Cupom já utilizado",
		"error.inactive":                        "Cupom ainda não ativado",
		"error.expired":                         "Cupom expirado",
		"error.coupon_not_owned":                "Cupom pertence a outro usuário",
		"error.coupon_type_inactive":            "Tipo de cupom indisponível para venda",
		"error.order_status_transition_invalid": "Mudança de status não permitida",
		"error.email_exists":                    "E-mail já cadastrado",
		"error.user_disabled":                   "Conta desativada",
		"error.product_not_found":               "Produto não encontrado",
		"error.coupon_not_found":                "Cupom não encontrado",
		"error.coupon_type_not_found":           "Tipo de cupom não encontrado",
		"error.order_not_found":                 "Pedido não encontrado",
		"error.special_day_not_found":           "Dia especial não encontrado",
		"error.payment_not_found":               "Pagamento não encontrado",
		"error.invalid_credentials":             "E-mail ou senha incorretos",
		"error.concurrency_conflict":            "Outra compra foi concluída antes, tente novamente",
		"error.coupon_code_exhausted":           "Não foi possível gerar o código do cupom",
		"error.order_number_exhausted":          "Não foi possível gerar o número do pedido",
		"error.payment_gateway_unavailable":     "Pagamento indisponível no momento",
		"error.payment_gateway_not_configured":  "Pagamento não configurado",
		"error.reference_unknown":               "Pagamento sem pedido correspondente",
		"mail.coupon_issued.subject":            "Seu cupom de %d%% está ativo",
	},
	LocaleEnUS: {
		"error.bad_request":                     "Invalid request",
		"error.unauthorized":                    "Not authenticated",
		"error.forbidden":                       "Access denied",
		"error.not_found":                       "Resource not found",
		"error.too_many_requests":               "Too many attempts, please wait and retry",
		"error.internal_error":                  "Internal error, please try again later",
		"error.webhook_signature_invalid":       "Invalid webhook signature",
		"error.invalid_order_item":              "Invalid order items",
		"error.invalid_address":                 "Delivery address is incomplete",
		"error.invalid_payment_method":          "Payment method not supported",
		"error.invalid_shipping":                "Invalid shipping amount",
		"error.invalid_cpf":                     "Invalid CPF",
		"error.invalid_card_token":              "Card token is required",
		"error.invalid_email":                   "Invalid email",
		"error.weak_password":                   "Weak password",
		"error.password_min_length":             "Password must have at least %d characters",
		"error.password_require_upper":          "Password must contain an uppercase letter",
		"error.password_require_lower":          "Password must contain a lowercase letter",
		"error.password_require_number":         "Password must contain a digit",
		"error.invalid_special_day":             "Invalid special day window",
		"error.invalid_coupon_type":             "Invalid coupon type",
		"error.invalid_order_status":            "Invalid order status",
		"error.invalid_product":                 "Invalid product data",
		"error.product_unavailable":             "Product is only available on special days",
		"error.insufficient_stock":              "Insufficient stock",
		"error.requires_special_day":            "Coupons can only be used on a special day",
		"error.already_used":                    "Coupon already used",
		"error.inactive":                        "Coupon not activated yet",
		"error.expired":                         "Coupon expired",
		"error.coupon_not_owned":                "Coupon belongs to another user",
		"error.coupon_type_inactive":            "Coupon type is not for sale",
		"error.order_status_transition_invalid": "Status change not allowed",
		"error.email_exists":                    "Email already registered",
		"error.user_disabled":                   "Account disabled",
		"error.product_not_found":               "Product not found",
		"error.coupon_not_found":                "Coupon not found",
		"error.coupon_type_not_found":           "Coupon type not found",
		"error.order_not_found":                 "Order not found",
		"error.special_day_not_found":           "Special day not found",
		"error.payment_not_found":               "Payment not found",
		"error.invalid_credentials":             "Wrong email or password",
		"error.concurrency_conflict":            "Another purchase finished first, please retry",
		"error.coupon_code_exhausted":           "Could not generate a coupon code",
		"error.order_number_exhausted":          "Could not generate an order number",
		"error.payment_gateway_unavailable":     "Payment is unavailable right now",
		"error.payment_gateway_not_configured":  "Payment is not configured",
		"error.reference_unknown":               "Payment has no matching order",
		"mail.coupon_issued.subject":            "Your %d%% coupon is active",
	},
}
