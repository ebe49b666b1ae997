package term

func (v ColorMode) Red(s string) string {
	switch v {
	case HAS_TRUECOLOR:
		// #f43b47
		return "\x1b[38;2;244;59;71m" + s + "\x1b[0m"
	case HAS_256COLOR:
		// \e[0;31m	Red
		return "\x1b[31m" + s + "\x1b[0m"
	default:
	}
	return s
}

func (v ColorMode) Green(s string) string {
	switch v {
	case HAS_TRUECOLOR:
		// #43e97b
		return "\x1b[38;2;67;233;123m" + s + "\x1b[0m"
	case HAS_256COLOR:
		// \e[0;32m	Green
		return "\x1b[32m" + s + "\x1b[0m"
	default:
	}
	return s
}

func (v ColorMode) Yellow(s string) string {
	switch v {
	case HAS_TRUECOLOR:
		// #fee140
		return "\x1b[38;2;254;225;64m" + s + "\x1b[0m"
	case HAS_256COLOR:
		// \e[0;33m	Yellow
		return "\x1b[33m" + s + "\x1b[0m"
	default:
	}
	return s
}

func (v ColorMode) Blue(s string) string {
	switch v {
	case HAS_TRUECOLOR:
		// #00c9ff
		return "\x1b[38;2;0;201;255m" + s + "\x1b[0m"
	case HAS_256COLOR:
		// \e[0;34m	Blue
		return "\x1b[34m" + s + "\x1b[0m"
	default:
	}
	return s
}

func (v ColorMode) Purple(s string) string {
	switch v {
	case HAS_TRUECOLOR:
		// #7028e4
		return "\x1b[38;2;112;40;228m" + s + "\x1b[0m"
	case HAS_256COLOR:
		// \e[0;35m	Purple
		return "\x1b[35m" + s + "\x1b[0m"
	default:
	}
	return s
}
