// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

// Key names a chrome string.
type Key string

const (
	KeyAppTitle       Key = "app_title"
	KeyNewChat        Key = "new_chat"
	KeyWelcome        Key = "welcome"
	KeyWelcomeHint    Key = "welcome_hint"
	KeyTyping         Key = "typing"
	KeyStopped        Key = "stopped"
	KeyCopy           Key = "copy"
	KeyCopied         Key = "copied"
	KeySend           Key = "send"
	KeyStop           Key = "stop"
	KeyPlaceholder    Key = "placeholder"
	KeyHistory        Key = "history"
	KeyDelete         Key = "delete"
	KeyRename         Key = "rename"
	KeySearch         Key = "search"
	KeyConnectionErr  Key = "connection_error"
	KeyThemeLight     Key = "theme_light"
	KeyThemeDark      Key = "theme_dark"
	KeyLanguage       Key = "language"
	KeyStatusReady    Key = "status_ready"
	KeyStatusNotReady Key = "status_not_ready"
	KeySyncDocs       Key = "sync_docs"
	KeySyncDone       Key = "sync_done"
	KeyCacheCleared   Key = "cache_cleared"
	KeyBusy           Key = "busy"
	KeyHelp           Key = "help"
	KeyYou            Key = "you"
	KeyTutor          Key = "tutor"
	KeyExported       Key = "exported"
	KeyConfirmDelete  Key = "confirm_delete"
)

var translations = map[Language]map[Key]string{
	Arabic: {
		KeyAppTitle:       "دارتي - خبير Dart و Flutter",
		KeyNewChat:        "محادثة جديدة",
		KeyWelcome:        "مرحباً! أنا خبيرك في Dart و Flutter",
		KeyWelcomeHint:    "اسألني عن أي شيء في Dart أو Flutter",
		KeyTyping:         "يكتب...",
		KeyStopped:        "تم إيقاف التوليد",
		KeyCopy:           "نسخ",
		KeyCopied:         "تم النسخ!",
		KeySend:           "إرسال",
		KeyStop:           "إيقاف",
		KeyPlaceholder:    "اكتب سؤالك هنا...",
		KeyHistory:        "المحادثات",
		KeyDelete:         "حذف",
		KeyRename:         "إعادة تسمية",
		KeySearch:         "بحث",
		KeyConnectionErr:  "خطأ في الاتصال",
		KeyThemeLight:     "الوضع الفاتح",
		KeyThemeDark:      "الوضع الداكن",
		KeyLanguage:       "English",
		KeyStatusReady:    "الخبير جاهز",
		KeyStatusNotReady: "الخبير غير مهيأ",
		KeySyncDocs:       "جلب الوثائق",
		KeySyncDone:       "تم جلب الوثائق",
		KeyCacheCleared:   "تم مسح الذاكرة المؤقتة",
		KeyBusy:           "يوجد طلب قيد التنفيذ",
		KeyHelp:           "Enter إرسال · Esc إيقاف · Tab المحادثات · Ctrl+N جديد · Ctrl+B اللوحة · Ctrl+L اللغة · Ctrl+T السمة · Ctrl+Y نسخ · Ctrl+E تصدير",
		KeyYou:            "أنت",
		KeyTutor:          "الخبير",
		KeyExported:       "تم الحفظ في",
		KeyConfirmDelete:  "اضغط مرة أخرى للحذف",
	},
	English: {
		KeyAppTitle:       "Darty - Dart & Flutter tutor",
		KeyNewChat:        "New chat",
		KeyWelcome:        "Hi! I'm your Dart and Flutter tutor",
		KeyWelcomeHint:    "Ask me anything about Dart or Flutter",
		KeyTyping:         "Typing...",
		KeyStopped:        "Generation stopped",
		KeyCopy:           "Copy",
		KeyCopied:         "Copied!",
		KeySend:           "Send",
		KeyStop:           "Stop",
		KeyPlaceholder:    "Type your question...",
		KeyHistory:        "Chats",
		KeyDelete:         "Delete",
		KeyRename:         "Rename",
		KeySearch:         "Search",
		KeyConnectionErr:  "Connection error",
		KeyThemeLight:     "Light mode",
		KeyThemeDark:      "Dark mode",
		KeyLanguage:       "العربية",
		KeyStatusReady:    "Tutor ready",
		KeyStatusNotReady: "Tutor not initialized",
		KeySyncDocs:       "Sync docs",
		KeySyncDone:       "Documentation synced",
		KeyCacheCleared:   "Cache cleared",
		KeyBusy:           "A request is already running",
		KeyHelp:           "Enter send · Esc stop · Tab chats · Ctrl+N new · Ctrl+B panel · Ctrl+L language · Ctrl+T theme · Ctrl+Y copy · Ctrl+E export",
		KeyYou:            "You",
		KeyTutor:          "Tutor",
		KeyExported:       "Saved to",
		KeyConfirmDelete:  "Press again to delete",
	},
}

// Translate returns key in lang, falling back to Arabic and then to the
// key itself.
func Translate(lang Language, key Key) string {
	if s, ok := translations[lang][key]; ok {
		return s
	}
	if s, ok := translations[Arabic][key]; ok {
		return s
	}
	return string(key)
}
