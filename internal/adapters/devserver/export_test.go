package devserver

var InjectClient = injectClient

const ClientScriptPath = clientScriptPath
